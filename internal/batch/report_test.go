package batch

import (
	"strings"
	"testing"

	"ogre-mesh-tools/internal/model"
)

func sampleReport() model.BatchReport {
	report := model.BatchReport{}
	report.Append(model.ItemResult{
		InputPath: "/meshes/zebra.mesh",
		Outcomes: []model.OperationOutcome{
			model.SuccessOutcome(model.OpRecalcNormals, "/meshes/zebra.mesh"),
			model.SuccessOutcome(model.OpExportOBJ, "/meshes/OBJ_Export/zebra.obj"),
		},
	})
	report.Append(model.ItemResult{
		InputPath: "/meshes/ring.mesh",
		Outcomes: []model.OperationOutcome{
			model.SuccessOutcome(model.OpRecalcNormals, "/meshes/ring.mesh"),
			model.FailedOutcome(model.OpExportGLTF, model.ErrConfiguration, "blender path is not configured"),
		},
	})
	report.Append(model.ItemResult{
		InputPath: "/meshes/acorn.mesh",
		Outcomes: []model.OperationOutcome{
			model.FailedOutcome(model.OpExportOBJ, model.ErrInvocation, "converter exited 1"),
		},
	})
	report.Finalize()
	return report
}

func TestSummarizeClassifiesStandings(t *testing.T) {
	s := Summarize(sampleReport())

	if s.TotalItems != 3 || s.TotalSucceeded != 1 || s.TotalFailed != 2 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.PartialSucceeded != 1 {
		t.Fatalf("expected 1 partial, got %d", s.PartialSucceeded)
	}

	// Items sorted by input path for a stable summary.
	wantOrder := []string{"/meshes/acorn.mesh", "/meshes/ring.mesh", "/meshes/zebra.mesh"}
	wantStanding := []string{StandingFailed, StandingPartial, StandingSucceeded}
	for i := range wantOrder {
		if s.Items[i].InputPath != wantOrder[i] {
			t.Fatalf("item %d: expected %s, got %s", i, wantOrder[i], s.Items[i].InputPath)
		}
		if s.Items[i].Standing != wantStanding[i] {
			t.Fatalf("item %d: expected standing %s, got %s", i, wantStanding[i], s.Items[i].Standing)
		}
	}
}

func TestSummarizeCarriesFailureDetail(t *testing.T) {
	s := Summarize(sampleReport())

	var ring ItemSummary
	for _, item := range s.Items {
		if strings.HasSuffix(item.InputPath, "ring.mesh") {
			ring = item
		}
	}
	if len(ring.Failures) != 1 {
		t.Fatalf("expected one failure, got %v", ring.Failures)
	}
	if !strings.Contains(ring.Failures[0], "configuration") || !strings.Contains(ring.Failures[0], "blender") {
		t.Fatalf("failure line missing taxonomy or detail: %q", ring.Failures[0])
	}
	if len(ring.Outputs) != 1 {
		t.Fatalf("expected the successful normals output listed, got %v", ring.Outputs)
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	report := sampleReport()
	first := Summarize(report).Render()
	second := Summarize(report).Render()
	if first != second {
		t.Fatal("expected identical renders for the same report")
	}
	if !strings.Contains(first, "processed 3 file(s): 1 succeeded, 2 failed (1 partial)") {
		t.Fatalf("unexpected header: %q", first)
	}
}

func TestSummarizeDoesNotMutateReport(t *testing.T) {
	report := sampleReport()
	before := len(report.Items[0].Outcomes)
	_ = Summarize(report)
	if len(report.Items[0].Outcomes) != before {
		t.Fatal("summarize must not mutate the underlying results")
	}
}
