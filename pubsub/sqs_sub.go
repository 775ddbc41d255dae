/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package pubsub

import (
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	log "github.com/massenz/slf4go/logging"
)

type SqsSubscriber struct {
	logger   *log.Log
	client   *sqs.SQS
	requests chan<- TransitionRequest

	Timeout         time.Duration
	PollingInterval time.Duration
}

// NewSqsSubscriber will create a new `Subscriber` to listen to incoming
// TransitionRequests from an SQS queue.
func NewSqsSubscriber(requestsChannel chan<- TransitionRequest, sqsUrl *string) *SqsSubscriber {
	client := getSqsClient(sqsUrl)
	if client == nil {
		return nil
	}
	return &SqsSubscriber{
		logger:          log.NewLog("SQS-Sub"),
		client:          client,
		requests:        requestsChannel,
		Timeout:         DefaultVisibilityTimeout,
		PollingInterval: DefaultPollingInterval,
	}
}

// SetLogLevel allows the SqsSubscriber to implement the log.Loggable interface.
func (s *SqsSubscriber) SetLogLevel(level log.LogLevel) {
	s.logger.Level = level
}

// Subscribe polls the `topic` queue until signaled on the `done` channel
// and forwards decoded requests to the listener channel.
func (s *SqsSubscriber) Subscribe(topic string, done <-chan interface{}) {
	queueUrl := GetQueueUrl(s.client, topic)
	timeout := int64(s.Timeout.Seconds())
	s.logger.Info("SQS Subscriber started for queue: %s", queueUrl)

	for {
		select {
		case <-done:
			s.logger.Info("SQS Subscriber exiting")
			return
		default:
		}
		start := time.Now()
		s.logger.Trace("Polling SQS...")
		msgResult, err := s.client.ReceiveMessage(&sqs.ReceiveMessageInput{
			AttributeNames: []*string{
				aws.String(sqs.MessageSystemAttributeNameSentTimestamp),
			},
			QueueUrl:            &queueUrl,
			MaxNumberOfMessages: aws.Int64(10),
			VisibilityTimeout:   &timeout,
		})
		if err == nil {
			if len(msgResult.Messages) > 0 {
				s.logger.Debug("Got %d messages", len(msgResult.Messages))
			} else {
				s.logger.Trace("No messages in queue")
			}
			for _, msg := range msgResult.Messages {
				s.ProcessMessage(msg, &queueUrl, done)
			}
		} else {
			s.logger.Error(err.Error())
		}
		timeLeft := s.PollingInterval - time.Since(start)
		if timeLeft > 0 {
			time.Sleep(timeLeft)
		}
	}
}

// ProcessMessage decodes one SQS message body into a TransitionRequest and
// forwards it; malformed messages are removed from the queue (retrying a
// message that will forever fail to parse is wasteful).
func (s *SqsSubscriber) ProcessMessage(msg *sqs.Message, queueUrl *string, done <-chan interface{}) {
	var request TransitionRequest
	if err := json.Unmarshal([]byte(*msg.Body), &request); err != nil {
		s.logger.Error("malformed request in message %v: %v", *msg.MessageId, err)
		s.remove(msg, queueUrl)
		return
	}
	if request.Timestamp.IsZero() {
		request.Timestamp = time.Now()
	}
	// A shutdown may arrive while the forward blocks; the message is left
	// in the queue and becomes visible again after the visibility timeout.
	select {
	case s.requests <- request:
		s.remove(msg, queueUrl)
	case <-done:
		s.logger.Warn("shutting down, request %s not forwarded", request.RequestID)
	}
}

func (s *SqsSubscriber) remove(msg *sqs.Message, queueUrl *string) {
	s.logger.Debug("Removing message %v from SQS", *msg.MessageId)
	_, err := s.client.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      queueUrl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		s.logger.Error("failed to remove message %v from SQS: %v", msg.MessageId, err)
	}
}
