package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

func rec(email, code string, purpose domain.OTPPurpose) domain.OTPRecord {
	return domain.OTPRecord{Email: email, Code: code, Purpose: purpose, ExpiresAt: time.Now().Add(time.Minute)}
}

func TestOTPStore_PutTake(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()

	if err := s.Put(ctx, rec("a@x.com", "111111", domain.PurposeEmailVerification)); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Take(ctx, "a@x.com", domain.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if got.Code != "111111" {
		t.Fatalf("unexpected code %s", got.Code)
	}

	if _, err := s.Take(ctx, "a@x.com", domain.PurposeEmailVerification); err != domain.ErrOTPNotFound {
		t.Fatalf("expected ErrOTPNotFound on second take, got %v", err)
	}
}

func TestOTPStore_OverwriteSamePurpose(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()

	_ = s.Put(ctx, rec("a@x.com", "111111", domain.PurposePasswordReset))
	_ = s.Put(ctx, rec("a@x.com", "222222", domain.PurposePasswordReset))

	got, err := s.Take(ctx, "a@x.com", domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if got.Code != "222222" {
		t.Fatalf("expected latest code, got %s", got.Code)
	}
}

func TestOTPStore_PurposesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()

	_ = s.Put(ctx, rec("a@x.com", "111111", domain.PurposeEmailVerification))
	_ = s.Put(ctx, rec("a@x.com", "222222", domain.PurposePasswordReset))

	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}
	got, err := s.Take(ctx, "a@x.com", domain.PurposeEmailVerification)
	if err != nil || got.Code != "111111" {
		t.Fatalf("verification record lost: %v %+v", err, got)
	}
}

func TestOTPStore_DeleteAllPurposes(t *testing.T) {
	ctx := context.Background()
	s := NewOTPStore()

	_ = s.Put(ctx, rec("a@x.com", "111111", domain.PurposeEmailVerification))
	_ = s.Put(ctx, rec("a@x.com", "222222", domain.PurposePasswordReset))
	_ = s.Put(ctx, rec("b@x.com", "333333", domain.PurposePasswordReset))

	if err := s.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected only b@x.com to remain, got %d records", s.Len())
	}
}

func TestOTPStore_GetDoesNotConsume(t *testing.T) {
	s := NewOTPStore()
	ctx := context.Background()
	_ = s.Put(ctx, domain.OTPRecord{Email: "a@x.com", Code: "123456", Purpose: domain.PurposePasswordReset})

	for i := 0; i < 2; i++ {
		got, err := s.Get(ctx, "a@x.com", domain.PurposePasswordReset)
		if err != nil || got.Code != "123456" {
			t.Fatalf("get %d: %+v %v", i, got, err)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("expected record to stay, got %d", s.Len())
	}
	if _, err := s.Get(ctx, "a@x.com", domain.PurposeEmailVerification); err != domain.ErrOTPNotFound {
		t.Fatalf("expected ErrOTPNotFound, got %v", err)
	}
}
