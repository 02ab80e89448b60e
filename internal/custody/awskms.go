package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
)

// kmsAccessDeniedCode is returned by KMS for IAM denials. The kms package
// defines no constant for it because it is an AWS-wide error code.
const kmsAccessDeniedCode = "AccessDeniedException"

// KMSService implements Service against AWS KMS. Keys are addressed by
// key ID, ARN or alias. Digests are signed remotely with
// RSASSA_PKCS1_V1_5_SHA_256; the private key never leaves KMS.
type KMSService struct {
	client kmsiface.KMSAPI
}

var _ Service = (*KMSService)(nil)

// NewKMSService creates a KMS-backed custody service from settings.
func NewKMSService(settings KMSSettings) (*KMSService, error) {
	cfg := aws.Config{}
	if settings.Region != "" {
		cfg.Region = aws.String(settings.Region)
	}
	if settings.Endpoint != "" {
		cfg.Endpoint = aws.String(settings.Endpoint)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		Profile:           settings.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &KMSService{client: kms.New(sess)}, nil
}

// NewKMSServiceWithClient creates a KMS-backed custody service with an
// explicit client. Used by tests with a fake KMSAPI.
func NewKMSServiceWithClient(client kmsiface.KMSAPI) *KMSService {
	return &KMSService{client: client}
}

// PublicKey exports the key's public half. KMS returns it as a
// SubjectPublicKeyInfo DER blob.
func (s *KMSService) PublicKey(ctx context.Context, keyID string) ([]byte, error) {
	out, err := s.client.GetPublicKeyWithContext(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(keyID),
	})
	if err != nil {
		return nil, mapKMSError(keyID, err)
	}
	return out.PublicKey, nil
}

// SignDigest asks KMS to sign a SHA-256 digest with RSASSA-PKCS1-v1_5.
func (s *KMSService) SignDigest(ctx context.Context, keyID string, digest []byte) ([]byte, error) {
	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	out, err := s.client.SignWithContext(ctx, &kms.SignInput{
		KeyId:            aws.String(keyID),
		Message:          digest,
		MessageType:      aws.String(kms.MessageTypeDigest),
		SigningAlgorithm: aws.String(kms.SigningAlgorithmSpecRsassaPkcs1V15Sha256),
	})
	if err != nil {
		return nil, mapKMSError(keyID, err)
	}
	return out.Signature, nil
}

// mapKMSError translates KMS errors into the custody taxonomy, for both
// the public key export and signing paths: policy denials (disabled key,
// wrong key usage, pending deletion) are terminal, everything else counts
// as the signer being unavailable.
func mapKMSError(keyID string, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case kms.ErrCodeNotFoundException:
			return fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
		case kmsAccessDeniedCode:
			return fmt.Errorf("%w: %s", ErrAccessDenied, keyID)
		case kms.ErrCodeDisabledException,
			kms.ErrCodeInvalidKeyUsageException,
			kms.ErrCodeInvalidStateException:
			return fmt.Errorf("%w: %s", ErrSignerRejected, aerr.Message())
		}
	}
	return fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
}
