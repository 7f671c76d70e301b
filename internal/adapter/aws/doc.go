// Package aws implements the collaborators on AWS services: an SQS work
// queue, SSM and DynamoDB checkpoint stores, a Firehose stream sink, a
// Comprehend sentiment provider, an S3 blob reader and a Secrets Manager
// loader for search credentials.
//
// Each adapter talks to a narrow interface over the SDK client so tests can
// substitute a fake.
package aws
