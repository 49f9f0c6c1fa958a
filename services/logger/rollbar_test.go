package logsvc

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
)

func TestRollbarLogger(t *testing.T) {
	var buff bytes.Buffer
	conf := &core.Config{Env: "TEST", Build: "test"}
	l := NewRollbarLogger(log.New(&buff, "", 0), conf)

	ana := principal.Principal{ID: "ana", DisplayName: "Ana", Role: principal.RoleStudent}
	l.Debug("hidden")
	l.Error("saving document", errors.New("quota exceeded"), ana)

	out := buff.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug() printed outside debug mode: %q", out)
	}
	if !strings.Contains(out, "[ERROR] saving document") || !strings.Contains(out, "quota exceeded") {
		t.Errorf("Error() output = %q", out)
	}
	if strings.Contains(out, "Ana") {
		t.Errorf("Error() printed the principal: %q", out)
	}
}
