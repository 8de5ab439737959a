package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestVerificationService(codes *mockCodeRepo, sender *mockEmailSender) *VerificationService {
	return NewVerificationService(zap.NewNop(), codes, sender)
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestVerificationIssueStoresAndSends(t *testing.T) {
	codes := newMockCodeRepo()
	sender := &mockEmailSender{}
	svc := newTestVerificationService(codes, sender)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if err := svc.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	row, err := codes.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("code not stored: %v", err)
	}
	if len(row.Code) != 6 {
		t.Fatalf("code length = %d, want 6", len(row.Code))
	}
	if !row.ExpiresAt.Equal(base.Add(10 * time.Minute)) {
		t.Fatalf("expiry = %v, want issue + 10m", row.ExpiresAt)
	}
	if sender.lastTo != "ada@example.com" {
		t.Fatalf("email sent to %q", sender.lastTo)
	}
	if sender.sentCode() != row.Code {
		t.Fatal("emailed code differs from stored code")
	}
}

func TestVerificationIssueOverwritesExisting(t *testing.T) {
	codes := newMockCodeRepo()
	sender := &mockEmailSender{}
	svc := newTestVerificationService(codes, sender)

	if err := svc.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	first, _ := codes.GetByEmail(context.Background(), "ada@example.com")

	if err := svc.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("second Issue: %v", err)
	}
	second, _ := codes.GetByEmail(context.Background(), "ada@example.com")

	if codes.count() != 1 {
		t.Fatalf("rows for one email = %d, want 1", codes.count())
	}
	if first.ID != second.ID {
		t.Fatal("reissue replaced the row instead of updating it in place")
	}
	// La primera emisión queda invalidada.
	if _, err := svc.Verify(context.Background(), "ada@example.com", first.Code); !errors.Is(err, ErrInvalidCredentials) {
		if first.Code != second.Code {
			t.Fatalf("superseded code still verifies, err = %v", err)
		}
	}
	if _, err := svc.Verify(context.Background(), "ada@example.com", second.Code); err != nil {
		t.Fatalf("latest code rejected: %v", err)
	}
}

func TestVerificationIssueSendFailure(t *testing.T) {
	codes := newMockCodeRepo()
	sender := &mockEmailSender{err: errors.New("smtp down")}
	svc := newTestVerificationService(codes, sender)

	err := svc.Issue(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("err = %v, want ErrOperationFailed", err)
	}
}

func TestVerificationIssueStoreFailure(t *testing.T) {
	codes := newMockCodeRepo()
	codes.upsertErr = errors.New("db down")
	sender := &mockEmailSender{}
	svc := newTestVerificationService(codes, sender)

	err := svc.Issue(context.Background(), "ada@example.com")
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("err = %v, want ErrOperationFailed", err)
	}
	// El envío corre igual: las dos ramas son independientes.
	if sender.sendCount != 1 {
		t.Fatalf("send count = %d, want 1", sender.sendCount)
	}
}

func TestVerificationVerifyUnknownCode(t *testing.T) {
	svc := newTestVerificationService(newMockCodeRepo(), &mockEmailSender{})

	_, err := svc.Verify(context.Background(), "ada@example.com", "AAAAAA")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerificationVerifyWrongCodeKeepsRow(t *testing.T) {
	codes := newMockCodeRepo()
	svc := newTestVerificationService(codes, &mockEmailSender{})

	if err := svc.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Verify(context.Background(), "ada@example.com", "zzzzzz"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if codes.count() != 1 {
		t.Fatal("failed verification consumed the stored code")
	}
}

func TestVerificationVerifyExpiredCode(t *testing.T) {
	codes := newMockCodeRepo()
	svc := newTestVerificationService(codes, &mockEmailSender{})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if err := svc.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	row, _ := codes.GetByEmail(context.Background(), "ada@example.com")

	// Exactamente en el límite: expirado.
	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	_, err := svc.Verify(context.Background(), "ada@example.com", row.Code)
	if !errors.Is(err, ErrExpiredCode) {
		t.Fatalf("err = %v, want ErrExpiredCode", err)
	}
	// El borrado corre fuera del camino crítico.
	waitFor(t, func() bool { return codes.count() == 0 })
}

func TestVerificationConsume(t *testing.T) {
	codes := newMockCodeRepo()
	svc := newTestVerificationService(codes, &mockEmailSender{})

	if err := svc.Issue(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	row, err := svc.Verify(context.Background(), "ada@example.com", codes.codesByEmail["ada@example.com"].Code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	// Verify no consume por sí solo.
	if codes.count() != 1 {
		t.Fatal("Verify deleted the code")
	}

	if err := svc.Consume(context.Background(), row.ID); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if codes.count() != 0 {
		t.Fatal("Consume left the code behind")
	}
	if _, err := svc.Verify(context.Background(), "ada@example.com", row.Code); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("consumed code still verifies, err = %v", err)
	}
}
