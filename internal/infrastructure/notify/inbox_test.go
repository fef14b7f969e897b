package notify

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

func TestInbox_DropsOldestWhenFull(t *testing.T) {
	inbox := NewInbox(2, zerolog.Nop())
	for i := 1; i <= 3; i++ {
		inbox.Notify(domain.Notice{Level: domain.NoticeError, Source: "cart", Message: fmt.Sprintf("n%d", i)})
	}

	got := inbox.Drain()
	if len(got) != 2 || got[0].Message != "n2" || got[1].Message != "n3" {
		t.Fatalf("expected [n2 n3], got %+v", got)
	}
	if inbox.Len() != 0 {
		t.Errorf("drain must empty the inbox")
	}
}

func TestInbox_DrainEmpty(t *testing.T) {
	inbox := NewInbox(0, zerolog.Nop())

	if got := inbox.Drain(); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
