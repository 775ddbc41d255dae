/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package pubsub

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	log "github.com/massenz/slf4go/logging"
)

type SqsPublisher struct {
	logger   *log.Log
	client   *sqs.SQS
	outcomes <-chan TransitionOutcome
}

// NewSqsPublisher will create a new `Publisher` to post the transition
// outcomes received on the `outcomesChannel` to an SQS topic.
//
// The `awsUrl` is the URL of the AWS SQS service, which can be obtained
// from the AWS Console, or by the local AWS CLI.
func NewSqsPublisher(outcomesChannel <-chan TransitionOutcome, awsUrl *string) *SqsPublisher {
	client := getSqsClient(awsUrl)
	if client == nil {
		return nil
	}
	return &SqsPublisher{
		logger:   log.NewLog("SQS-Pub"),
		client:   client,
		outcomes: outcomesChannel,
	}
}

// SetLogLevel allows the SqsPublisher to implement the log.Loggable interface.
func (s *SqsPublisher) SetLogLevel(level log.LogLevel) {
	if s == nil {
		fmt.Println("WARN: attempting to set log level on nil Publisher")
		return
	}
	s.logger.Level = level
}

// Publish posts every outcome to the `topic`, JSON-encoded; it returns
// when the outcomes channel is closed.
func (s *SqsPublisher) Publish(topic string) {
	queueUrl := GetQueueUrl(s.client, topic)
	s.logger = log.NewLog(fmt.Sprintf("SQS-Pub{%s}", topic))
	s.logger.Info("SQS Publisher started for queue: %s", queueUrl)
	for outcome := range s.outcomes {
		delay := int64(0)
		s.logger.Debug("[%s] %s", outcome.String(), queueUrl)
		msgResult, err := s.client.SendMessage(&sqs.SendMessageInput{
			DelaySeconds: &delay,
			MessageBody:  aws.String(outcome.String()),
			QueueUrl:     &queueUrl,
		})
		if err != nil {
			s.logger.Error("Cannot publish outcome (%s): %v", outcome.String(), err)
			continue
		}
		s.logger.Debug("Outcome successfully posted to SQS: %s", *msgResult.MessageId)
	}
	s.logger.Info("SQS Publisher exiting")
}
