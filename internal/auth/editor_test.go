package auth

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
)

func TestEditorContext(t *testing.T) {
	g := NewWithT(t)

	_, ok := EditorFromContext(context.Background())
	g.Expect(ok).To(BeFalse())

	_, ok = EditorFromContext(WithEditor(context.Background(), nil))
	g.Expect(ok).To(BeFalse())

	e := &Editor{Subject: "123", Email: "jane@example.com"}
	got, ok := EditorFromContext(WithEditor(context.Background(), e))
	g.Expect(ok).To(BeTrue())
	g.Expect(got).To(BeIdenticalTo(e))
}

func TestEditor_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		editor   *Editor
		expected string
	}{
		{name: "nil editor", editor: nil, expected: ""},
		{name: "name first", editor: &Editor{Subject: "1", Email: "a@b.c", Name: "Jane"}, expected: "Jane"},
		{name: "email second", editor: &Editor{Subject: "1", Email: "a@b.c"}, expected: "a@b.c"},
		{name: "subject last", editor: &Editor{Subject: "1"}, expected: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			g.Expect(tt.editor.DisplayName()).To(Equal(tt.expected))
		})
	}
}
