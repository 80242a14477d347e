package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSignatureService signs payout requests so the receiving rail can tell
// them apart from forged ones. Signatures are lowercase hex HMAC-SHA256.
type HMACSignatureService struct{}

func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	return hex.EncodeToString(payoutMAC(secretKey, payload))
}

// Verify decodes signature and compares raw MACs in constant time. Anything
// that is not valid hex is rejected.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(payoutMAC(secretKey, payload), got)
}

func payoutMAC(secretKey, payload string) []byte {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
