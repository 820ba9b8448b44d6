package auth

import "context"

// Editor is the authenticated user behind a CMS request. It is created by
// the authorization middleware and travels explicitly in the request
// context down to the data layer, where it becomes the commit author.
type Editor struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
}

type contextKeyEditor struct{}

func WithEditor(ctx context.Context, e *Editor) context.Context {
	return context.WithValue(ctx, contextKeyEditor{}, e)
}

func EditorFromContext(ctx context.Context) (*Editor, bool) {
	e, ok := ctx.Value(contextKeyEditor{}).(*Editor)
	return e, ok && e != nil
}

// DisplayName returns the best human-readable identifier available.
func (e *Editor) DisplayName() string {
	switch {
	case e == nil:
		return ""
	case e.Name != "":
		return e.Name
	case e.Email != "":
		return e.Email
	default:
		return e.Subject
	}
}
