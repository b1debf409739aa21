// Package memory holds process-local store implementations, used for
// single-instance deployments and tests.
package memory

import (
	"context"
	"sync"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

type otpKey struct {
	email   string
	purpose domain.OTPPurpose
}

// OTPStore keeps OTP records in a map guarded by a mutex.
type OTPStore struct {
	mu      sync.Mutex
	records map[otpKey]domain.OTPRecord
}

func NewOTPStore() *OTPStore {
	return &OTPStore{records: make(map[otpKey]domain.OTPRecord)}
}

func (s *OTPStore) Put(_ context.Context, rec domain.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[otpKey{rec.Email, rec.Purpose}] = rec
	return nil
}

func (s *OTPStore) Get(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[otpKey{email, purpose}]
	if !ok {
		return nil, domain.ErrOTPNotFound
	}
	return &rec, nil
}

func (s *OTPStore) Take(_ context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := otpKey{email, purpose}
	rec, ok := s.records[k]
	if !ok {
		return nil, domain.ErrOTPNotFound
	}
	delete(s.records, k)
	return &rec, nil
}

func (s *OTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range domain.OTPPurposes {
		delete(s.records, otpKey{email, p})
	}
	return nil
}

// Len reports the number of live records.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
