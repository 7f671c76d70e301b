package aws

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

var _ domain.CheckpointStore = (*SSMCheckpoint)(nil)

// SSMCheckpoint keeps the run-state flag in a String parameter holding
// "True" or "False". A missing parameter reads as not run.
type SSMCheckpoint struct {
	api  ssmAPI
	name string
}

func NewSSMCheckpoint(cfg awssdk.Config, name string) *SSMCheckpoint {
	return newSSMCheckpointWithAPI(ssm.NewFromConfig(cfg), name)
}

func newSSMCheckpointWithAPI(api ssmAPI, name string) *SSMCheckpoint {
	return &SSMCheckpoint{api: api, name: name}
}

func (c *SSMCheckpoint) RunState(ctx context.Context) (bool, error) {
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{Name: awssdk.String(c.name)})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, translate("get parameter "+c.name, err)
	}
	if out.Parameter == nil {
		return false, fmt.Errorf("parameter %s has no value", c.name)
	}

	val := awssdk.ToString(out.Parameter.Value)
	ran, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parameter %s holds %q, want True or False: %w", c.name, val, err)
	}
	return ran, nil
}

func (c *SSMCheckpoint) SetRunState(ctx context.Context, ran bool) error {
	val := "False"
	if ran {
		val = "True"
	}

	_, err := c.api.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      awssdk.String(c.name),
		Value:     awssdk.String(val),
		Type:      types.ParameterTypeString,
		Overwrite: awssdk.Bool(true),
	})
	if err != nil {
		return translate("put parameter "+c.name, err)
	}
	return nil
}

func (c *SSMCheckpoint) Ping(ctx context.Context) error {
	_, err := c.RunState(ctx)
	return err
}
