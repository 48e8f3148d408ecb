package ctxutil

import "context"

// Default returns ctx, or context.Background when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

type learnerKey struct{}
type adminKey struct{}

// Learner identifies the signed-in learner (the auth provider's user id).
type Learner struct {
	UserID string
	Email  string
}

func WithLearner(ctx context.Context, l *Learner) context.Context {
	return context.WithValue(Default(ctx), learnerKey{}, l)
}

func GetLearner(ctx context.Context) *Learner {
	if ctx == nil {
		return nil
	}
	if l, ok := ctx.Value(learnerKey{}).(*Learner); ok {
		return l
	}
	return nil
}

// WithAdmin records the email carried by a verified admin token.
func WithAdmin(ctx context.Context, email string) context.Context {
	return context.WithValue(Default(ctx), adminKey{}, email)
}

func GetAdmin(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(adminKey{}).(string)
	return s
}
