package delegate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/enricher/internal/auth"
	"github.com/JaimeStill/enricher/internal/enrichment"
)

// Runner executes one enrichment invocation.
type Runner interface {
	Run(ctx context.Context, inv enrichment.Invocation) (*enrichment.Output, error)
}

// FetchToken stores a bearer token in VarAccessToken.
type FetchToken struct {
	source auth.TokenSource
	logger *slog.Logger
}

// NewFetchToken creates a FetchToken delegate.
func NewFetchToken(source auth.TokenSource, logger *slog.Logger) *FetchToken {
	return &FetchToken{
		source: source,
		logger: logger.With("delegate", "fetch-token"),
	}
}

func (d *FetchToken) Execute(ctx context.Context, vars Variables) error {
	token, err := d.source.Token(ctx)
	if err != nil {
		return err
	}
	vars.SetVariable(VarAccessToken, token)
	d.logger.Info("access token stored")
	return nil
}

// DescribeImage runs the image description profile against VarImageBase64
// and publishes VarUploadedResource and VarImageDescription.
type DescribeImage struct {
	runner  Runner
	profile *enrichment.Profile
	logger  *slog.Logger
}

// NewDescribeImage creates a DescribeImage delegate limited to maxWords.
func NewDescribeImage(runner Runner, maxWords int, logger *slog.Logger) *DescribeImage {
	return &DescribeImage{
		runner:  runner,
		profile: enrichment.DescriptionProfile(maxWords),
		logger:  logger.With("delegate", "describe-image"),
	}
}

func (d *DescribeImage) Execute(ctx context.Context, vars Variables) error {
	token, err := accessToken(vars)
	if err != nil {
		return err
	}

	raw, err := require(vars, VarImageBase64)
	if err != nil {
		return err
	}

	out, err := run(ctx, d.runner, token, raw, d.profile)
	if err != nil {
		return err
	}

	vars.SetVariable(VarUploadedResource, out.ResourceKey)
	vars.SetVariable(VarImageDescription, out.Result["description"])

	d.logger.Info("image description stored", "resource_key", out.ResourceKey, "state", out.State)
	return nil
}

// ExtractVehicleMetadata runs the vehicle metadata profile against VarPDF,
// which may be raw bytes, a content id, base64 text, a data URI, or a path.
type ExtractVehicleMetadata struct {
	runner  Runner
	profile *enrichment.Profile
	logger  *slog.Logger
}

// NewExtractVehicleMetadata creates an ExtractVehicleMetadata delegate.
func NewExtractVehicleMetadata(runner Runner, logger *slog.Logger) *ExtractVehicleMetadata {
	return &ExtractVehicleMetadata{
		runner:  runner,
		profile: enrichment.VehicleMetadataProfile(),
		logger:  logger.With("delegate", "vehicle-metadata"),
	}
}

var vehicleVariables = []struct {
	field    string
	variable string
}{
	{"manufacturer", VarVehicleMake},
	{"model", VarVehicleModel},
	{"color", VarVehicleColor},
	{"year", VarVehicleYear},
	{"part", VarVehiclePart},
	{"damageType", VarDamageType},
	{"damageSeverity", VarDamageSeverity},
}

func (d *ExtractVehicleMetadata) Execute(ctx context.Context, vars Variables) error {
	token, err := accessToken(vars)
	if err != nil {
		return err
	}

	raw, err := require(vars, VarPDF)
	if err != nil {
		return err
	}

	out, err := run(ctx, d.runner, token, raw, d.profile)
	if err != nil {
		return err
	}

	vars.SetVariable(VarUploadedResource, out.ResourceKey)
	for _, v := range vehicleVariables {
		vars.SetVariable(v.variable, out.Result[v.field])
	}

	d.logger.Info("vehicle metadata stored", "resource_key", out.ResourceKey, "state", out.State)
	return nil
}

func accessToken(vars Variables) (string, error) {
	token, err := requireString(vars, VarAccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: run the token delegate first: %w", enrichment.ErrMissingToken, err)
	}
	return token, nil
}

func run(
	ctx context.Context,
	runner Runner,
	token string,
	raw any,
	profile *enrichment.Profile,
) (*enrichment.Output, error) {
	ref, err := enrichment.ReferenceFrom(raw)
	if err != nil {
		return nil, err
	}

	return runner.Run(ctx, enrichment.Invocation{
		Token:     token,
		Reference: ref,
		Profile:   profile,
	})
}
