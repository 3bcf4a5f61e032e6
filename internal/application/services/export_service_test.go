package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pixreview/pixreview-go/internal/domain/user"
)

func newExportFixture(t *testing.T) (*ExportService, *LeadService) {
	t.Helper()
	leads, _ := newLeadFixture(t)
	svc := NewExportService(newTestLogger(t), newTestTracker(), leads)
	svc.nowFn = newFakeClock().Now
	return svc, leads
}

func TestExportJSONRoundTrips(t *testing.T) {
	svc, leads := newExportFixture(t)

	leads.RecordEvaluation("rec-1", "Joana", testEvaluation("rec-1", 150.0), 0)
	leads.SetWithdrawal("rec-1", &user.Withdrawal{FullName: "Joana Dias", PixKey: "joana@pix.com", WhatsApp: "+5511911112222"}, true)

	data, err := svc.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}

	var payload ExportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	if payload.Stats == nil || payload.Stats.TotalUsers != 1 {
		t.Errorf("stats = %+v, want 1 user", payload.Stats)
	}
	if len(payload.Records) != 1 {
		t.Fatalf("exported %d records, want 1", len(payload.Records))
	}
	record := payload.Records[0]
	if record.Name != "Joana" || record.Withdrawal == nil {
		t.Errorf("record = %+v", record)
	}
	if payload.ExportedAt.IsZero() {
		t.Error("exportedAt not set")
	}
}

func TestExportReportContainsRecordDetails(t *testing.T) {
	svc, leads := newExportFixture(t)

	eval := testEvaluation("rec-1", 150.0)
	eval.Feedback = "embalagem ruim"
	leads.RecordEvaluation("rec-1", "Joana", eval, 0)

	report, err := svc.ExportReport()
	if err != nil {
		t.Fatalf("ExportReport() error: %v", err)
	}

	for _, want := range []string{
		"VISITOR REPORT",
		"Total visitors:    1",
		"Joana",
		"Relógio Invicta Pro Diver",
		"embalagem ruim",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
}

func TestExportEmptyRepository(t *testing.T) {
	svc, _ := newExportFixture(t)

	data, err := svc.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	var payload ExportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(payload.Records) != 0 {
		t.Errorf("empty repo exported %d records", len(payload.Records))
	}
}
