package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

type firehoseAPI interface {
	PutRecord(ctx context.Context, params *firehose.PutRecordInput, optFns ...func(*firehose.Options)) (*firehose.PutRecordOutput, error)
}

var _ domain.StreamSink = (*FirehoseSink)(nil)

// FirehoseSink puts each record on a delivery stream unchanged. Firehose
// concatenates records into its S3 objects without separators.
type FirehoseSink struct {
	api    firehoseAPI
	stream string
}

func NewFirehoseSink(cfg awssdk.Config, stream string) *FirehoseSink {
	return newFirehoseSinkWithAPI(firehose.NewFromConfig(cfg), stream)
}

func newFirehoseSinkWithAPI(api firehoseAPI, stream string) *FirehoseSink {
	return &FirehoseSink{api: api, stream: stream}
}

func (s *FirehoseSink) Append(ctx context.Context, record []byte) error {
	_, err := s.api.PutRecord(ctx, &firehose.PutRecordInput{
		DeliveryStreamName: awssdk.String(s.stream),
		Record:             &types.Record{Data: record},
	})
	if err != nil {
		return translate("put record to "+s.stream, err)
	}
	return nil
}
