package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tmpl := &Template{ID: "avatar-video", Name: "Avatar Video"}

	base := func() *Session {
		s := NewSession("sess-1")
		s.CanvasState = StateInputCollection
		s.Template = tmpl
		s.PendingInputID = "product-image"
		return s
	}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		diff := Diff(nil, base())
		if diff == nil {
			t.Fatal("Expected diff for initial load")
		}
		if diff.CanvasState == nil || *diff.CanvasState != StateInputCollection {
			t.Errorf("Expected canvas state in diff, got %v", diff.CanvasState)
		}
		if diff.TemplateID == nil || *diff.TemplateID != "avatar-video" {
			t.Errorf("Expected template id in diff, got %v", diff.TemplateID)
		}
	})

	t.Run("No Changes", func(t *testing.T) {
		old := base()
		if diff := Diff(old, old.Snapshot()); diff != nil {
			t.Errorf("Expected nil diff, got %+v", diff)
		}
	})

	t.Run("Input Added And Pending Moved", func(t *testing.T) {
		old := base()
		next := old.Snapshot()
		next.Collected = append(next.Collected, CollectedInput{
			InputID: "product-image",
			Type:    InputImage,
			Value:   BlobValue(BlobRef{URL: "https://cdn.example.com/p.png"}),
		})
		next.PendingInputID = "product-description"

		diff := Diff(old, next)
		if diff == nil {
			t.Fatal("Expected diff")
		}
		if diff.CanvasState != nil {
			t.Errorf("Canvas state did not change, got %v", *diff.CanvasState)
		}
		if got := diff.Inputs["product-image"]; got == nil || got.Blob == nil {
			t.Errorf("Expected product-image blob in diff, got %+v", got)
		}
		if diff.PendingInputID == nil || *diff.PendingInputID != "product-description" {
			t.Errorf("Expected pending input change, got %v", diff.PendingInputID)
		}
	})

	t.Run("Input Removed On Reset", func(t *testing.T) {
		old := base()
		old.Collected = []CollectedInput{{InputID: "product-description", Type: InputText, Value: TextValue("earbuds")}}
		next := NewSession("sess-1")

		diff := Diff(old, next)
		if diff == nil {
			t.Fatal("Expected diff")
		}
		val, ok := diff.Inputs["product-description"]
		if !ok || val != nil {
			t.Errorf("Expected removed input marked with nil, got %v (present=%v)", val, ok)
		}
	})
}

func TestDiff_JSON(t *testing.T) {
	old := NewSession("sess-1")
	next := old.Snapshot()
	next.CanvasState = StateGenerating

	data, err := json.Marshal(Diff(old, next))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"canvas_state":"generating"`) {
		t.Errorf("Expected canvas_state in JSON, got %s", out)
	}
	if strings.Contains(out, `"inputs"`) {
		t.Errorf("Expected inputs omitted, got %s", out)
	}
}
