package goAccount

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

func TestResetPasswordFilesTicketAndPollsUntilConsumed(t *testing.T) {
	ta := newTestAccount(t)

	var statusChecks atomic.Int32
	ta.transport.setHandler(func(method, path string, opts RequestOptions) (*Response, error) {
		switch method {
		case "PUT":
			return jsonResponse(t, 201, map[string]any{"ok": true, "rev": "1-a"}), nil
		case "GET":
			// Ticket still readable on the first check, consumed afterwards.
			if statusChecks.Add(1) == 1 {
				return jsonResponse(t, 200, UserDocument{Name: "$passwordReset/joe/id2"}), nil
			}
			return errorResponse(401, "unauthorized", "Name or password is incorrect."), nil
		}
		return nil, errors.New("unexpected request")
	})

	if err := ta.account.ResetPassword(context.Background(), "joe"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	puts := ta.transport.callsTo("PUT", "/_users/org.couchdb.user:$passwordReset%2Fjoe%2Fid2")
	if len(puts) != 1 {
		t.Fatalf("ticket writes = %d, want 1", len(puts))
	}
	doc := decodeDoc(t, puts[0].opts.Body)
	if doc.Name != "$passwordReset/joe/id2" || doc.Password != "joe/id2" || doc.Type != "user" {
		t.Fatalf("ticket doc = %+v", doc)
	}

	// Status checks authenticate as the ticket itself.
	gets := ta.transport.callsTo("GET", "/_users/org.couchdb.user:$passwordReset%2Fjoe%2Fid2")
	if len(gets) != 2 {
		t.Fatalf("status checks = %d, want 2", len(gets))
	}
	if gets[0].opts.Username != "$passwordReset/joe/id2" || gets[0].opts.Password != "joe/id2" {
		t.Fatalf("status check credentials = %q / %q", gets[0].opts.Username, gets[0].opts.Password)
	}

	if ta.store.get(keyResetPasswordID) != "" {
		t.Fatal("ticket id not removed after completion")
	}
	if ta.account.MetricsSnapshot()[MetricResetComplete] != 1 {
		t.Fatal("reset completion not counted")
	}

	ta.flush()
	if !ta.bus.has(EventPasswordReset) {
		t.Fatalf("events = %v", ta.bus.names())
	}
}

func TestResetPasswordResumesPendingTicket(t *testing.T) {
	ta := newTestAccount(t)
	ta.store.values[keyResetPasswordID] = "joe/old"

	ta.transport.setHandler(func(method, path string, opts RequestOptions) (*Response, error) {
		if method == "GET" {
			return errorResponse(401, "unauthorized", "consumed"), nil
		}
		return nil, errors.New("unexpected request")
	})

	if err := ta.account.ResetPassword(context.Background(), "joe"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	// No new ticket while one is pending: the only request is a status check.
	if n := ta.transport.callCount(); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
	if got := ta.transport.lastCall(); !strings.Contains(got.path, "joe%2Fold") {
		t.Fatalf("status check path = %q", got.path)
	}
}

func TestResetPasswordOverlappingCallsFileOneTicket(t *testing.T) {
	ta := newTestAccount(t)

	var putSeen atomic.Bool
	putStarted := make(chan struct{})
	releasePut := make(chan struct{})
	ta.transport.setHandler(func(method, path string, opts RequestOptions) (*Response, error) {
		switch method {
		case "PUT":
			if putSeen.CompareAndSwap(false, true) {
				close(putStarted)
			}
			<-releasePut
			return jsonResponse(t, 201, map[string]any{"ok": true, "rev": "1-a"}), nil
		case "GET":
			return errorResponse(401, "unauthorized", "consumed"), nil
		}
		return nil, errors.New("unexpected request")
	})

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- ta.account.ResetPassword(context.Background(), "joe")
	}()
	<-putStarted

	// The ticket id is persisted before the write goes out, so a second call
	// resumes status polling for that ticket instead of filing another one.
	if err := ta.account.ResetPassword(context.Background(), "joe"); err != nil {
		t.Fatalf("second ResetPassword: %v", err)
	}
	close(releasePut)

	// The second call's poll already consumed the ticket, which is what the
	// first caller then observes.
	if err := <-firstErr; !errors.Is(err, ErrResetMissing) {
		t.Fatalf("first ResetPassword err = %v, want ErrResetMissing", err)
	}

	if puts := ta.transport.callsTo("PUT", "/_users/org.couchdb.user:$passwordReset%2Fjoe%2Fid2"); len(puts) != 1 {
		t.Fatalf("ticket writes = %d, want 1", len(puts))
	}
	if n := ta.transport.callCount(); n != 2 {
		t.Fatalf("requests = %d, want one write and one status check", n)
	}
	if ta.store.get(keyResetPasswordID) != "" {
		t.Fatal("ticket id persisted after completion")
	}
}

func TestCheckPasswordResetStatusWithoutTicket(t *testing.T) {
	ta := newTestAccount(t)
	err := ta.account.CheckPasswordResetStatus(context.Background())
	if !errors.Is(err, ErrResetMissing) {
		t.Fatalf("err = %v, want ErrResetMissing", err)
	}
	ta.flush()
	if ta.bus.has(EventPasswordResetError) {
		t.Fatal("missing ticket must not raise a reset error event")
	}
}

func TestCheckPasswordResetStatusReportsWorkerError(t *testing.T) {
	ta := newTestAccount(t)
	ta.store.values[keyResetPasswordID] = "joe/id9"

	ta.transport.setHandler(func(method, path string, opts RequestOptions) (*Response, error) {
		return jsonResponse(t, 200, map[string]any{
			"_id":    "org.couchdb.user:$passwordReset/joe/id9",
			"name":   "$passwordReset/joe/id9",
			"type":   "user",
			"roles":  []string{},
			"$error": "no such user",
		}), nil
	})

	err := ta.account.CheckPasswordResetStatus(context.Background())
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("err = %v, want ErrRemote", err)
	}

	ta.flush()
	if !ta.bus.has(EventPasswordResetError) {
		t.Fatalf("events = %v", ta.bus.names())
	}
}

func TestCheckPasswordResetStatusRespectsAttemptCap(t *testing.T) {
	ta := newTestAccount(t)
	ta.account.config.PasswordReset.MaxAttempts = 2
	ta.store.values[keyResetPasswordID] = "joe/id9"

	ta.transport.setHandler(func(method, path string, opts RequestOptions) (*Response, error) {
		return jsonResponse(t, 200, UserDocument{Name: "$passwordReset/joe/id9"}), nil
	})

	err := ta.account.CheckPasswordResetStatus(context.Background())
	if !errors.Is(err, ErrRetryLimit) {
		t.Fatalf("err = %v, want ErrRetryLimit", err)
	}
	if ta.account.MetricsSnapshot()[MetricResetPollRetry] != 2 {
		t.Fatalf("poll retries = %d, want 2", ta.account.MetricsSnapshot()[MetricResetPollRetry])
	}
}
