// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/samber/oops"
)

const charsetUTF8 = "UTF-8"

// sesAPI is the subset of *ses.Client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	GetSendQuota(ctx context.Context, in *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
}

// SESMailer sends mail through Amazon SES.
type SESMailer struct {
	client sesAPI
	from   string
}

// NewSESMailer loads the default AWS configuration for region and creates an
// SES client. Credentials are resolved lazily by the SDK.
func NewSESMailer(ctx context.Context, region, from string) (*SESMailer, error) {
	if from == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("mail sender address is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").With("region", region).Wrap(err)
	}
	return newSESMailer(ses.NewFromConfig(cfg), from), nil
}

func newSESMailer(client sesAPI, from string) *SESMailer {
	return &SESMailer{client: client, from: from}
}

// Send delivers one message.
func (m *SESMailer) Send(ctx context.Context, to, subject, htmlBody string) (Receipt, error) {
	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charsetUTF8)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String(charsetUTF8)},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		return Receipt{}, deliveryError(TransportSES, err)
	}
	return Receipt{MessageID: aws.ToString(out.MessageId), Transport: TransportSES}, nil
}

// Verify confirms credentials and region by reading the account's send quota.
func (m *SESMailer) Verify(ctx context.Context) error {
	if _, err := m.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return deliveryError(TransportSES, err)
	}
	return nil
}
