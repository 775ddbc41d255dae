/*
 * Copyright (c) 2024 The flupdo Authors.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package pubsub

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	log "github.com/massenz/slf4go/logging"
)

// getSqsClient connects to AWS and obtains an SQS client; passing `nil` as
// the `sqsUrl` will connect by default to AWS; use a different (possibly
// local) URL for a LocalStack test deployment.
func getSqsClient(sqsUrl *string) *sqs.SQS {
	var sess *session.Session
	if sqsUrl == nil || *sqsUrl == "" {
		sess = session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		}))
	} else {
		region, found := os.LookupEnv("AWS_REGION")
		if !found {
			fmt.Printf("No AWS Region configured, cannot connect to SQS provider at %s\n",
				*sqsUrl)
			return nil
		}
		sess = session.Must(session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
			Config: aws.Config{
				Endpoint: sqsUrl,
				Region:   &region,
			},
		}))
	}
	return sqs.New(sess)
}

// GetQueueUrl retrieves from AWS SQS the URL for the queue, given the topic name.
func GetQueueUrl(client *sqs.SQS, topic string) string {
	out, err := client.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: &topic,
	})
	if err != nil || out.QueueUrl == nil {
		// From the Google School: fail fast and noisily from an unrecoverable error.
		log.RootLog.Fatal(fmt.Errorf("cannot get SQS Queue URL for topic %s: %v", topic, err))
	}
	return *out.QueueUrl
}
