package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/util/jsonpath"

	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/util/poll"
)

// State is the lifecycle position of a Watcher.
type State int

const (
	Pending State = iota
	Observed
	Matched
	TimedOut
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Observed:
		return "Observed"
	case Matched:
		return "Matched"
	case TimedOut:
		return "TimedOut"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reader is the part of ocp.Accessor a Watcher needs.
type Reader interface {
	Get(ctx context.Context, ref ocp.Ref) (*unstructured.Unstructured, error)
	List(ctx context.Context, ref ocp.Ref) ([]unstructured.Unstructured, error)
}

// Watch describes what to observe.
type Watch struct {
	// Ref addresses the resource. With an empty Name the resource is found
	// by listing and matching NameContains.
	Ref          ocp.Ref
	NameContains string
	// FieldPath is a JSONPath template such as {.status.phase}. Braces are
	// optional.
	FieldPath string
	// Target is the expected field value.
	Target string
	// Condition replaces the equality check against Target when set.
	Condition func(value string) bool
	// ConditionDescription names Condition in timeout errors, e.g.
	// "a current CSV".
	ConditionDescription string
	Timeout              time.Duration
	Interval             time.Duration
}

// Watcher observes one resource until it matches or times out.
type Watcher struct {
	reader  Reader
	w       Watch
	path    *jsonpath.JSONPath
	sampler *poll.Sampler[sample]

	mu    sync.Mutex
	state State
	last  string
	name  string
}

type sample struct {
	value string
	found bool
}

// New validates w and returns a Pending watcher. An invalid timeout or
// interval fails here, before any fetch.
func New(r Reader, w Watch, opts ...poll.Option) (*Watcher, error) {
	if w.Ref.Name == "" && w.NameContains == "" {
		return nil, fmt.Errorf("watch %s: name or name pattern is required", w.Ref)
	}
	path := jsonpath.New("field").AllowMissingKeys(true)
	if err := path.Parse(normalizePath(w.FieldPath)); err != nil {
		return nil, fmt.Errorf("watch %s: invalid field path %q: %w", w.Ref, w.FieldPath, err)
	}

	watcher := &Watcher{reader: r, w: w, path: path}
	opts = append([]poll.Option{poll.WithDescription("watch %s %s", w.describe(), w.FieldPath)}, opts...)
	sampler, err := poll.New(w.Timeout, w.Interval, watcher.observe, opts...)
	if err != nil {
		return nil, err
	}
	watcher.sampler = sampler
	return watcher, nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, "{") {
		return p
	}
	if !strings.HasPrefix(p, ".") {
		p = "." + p
	}
	return "{" + p + "}"
}

func (w Watch) describe() string {
	if w.Ref.Name != "" {
		return w.Ref.String()
	}
	return fmt.Sprintf("%s %s/*%s*", w.Ref.GVK.Kind, w.Ref.Namespace, w.NameContains)
}

func (w Watch) matches(value string) bool {
	if w.Condition != nil {
		return w.Condition(value)
	}
	return value == w.Target
}

// State returns the current state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Last returns the last observed field value.
func (w *Watcher) Last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Name returns the name of the observed resource, resolved from
// NameContains when no exact name was given.
func (w *Watcher) Name() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.name
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// observe is one poll tick.
func (w *Watcher) observe(ctx context.Context) (sample, error) {
	obj, err := w.fetch(ctx)
	if err != nil {
		return sample{}, err
	}

	results, err := w.path.FindResults(obj.Object)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Observed
	w.name = obj.GetName()
	if err != nil || len(results) == 0 || len(results[0]) == 0 || !results[0][0].IsValid() {
		return sample{}, nil
	}
	value := fmt.Sprint(results[0][0].Interface())
	w.last = value
	return sample{value: value, found: true}, nil
}

func (w *Watcher) fetch(ctx context.Context) (*unstructured.Unstructured, error) {
	if w.w.Ref.Name != "" {
		return w.reader.Get(ctx, w.w.Ref)
	}
	items, err := w.reader.List(ctx, w.w.Ref)
	if err != nil {
		return nil, err
	}
	matched := ocp.FilterByName(items, w.w.NameContains)
	if len(matched) == 0 {
		return nil, fmt.Errorf("no %s matching %q yet", w.w.Ref.GVK.Kind, w.w.NameContains)
	}
	return &matched[0], nil
}

// Wait polls until the field matches. It returns nil once Matched, a
// *ResourceWrongStatusError once TimedOut, or the context error.
func (w *Watcher) Wait(ctx context.Context) error {
	_, err := poll.WaitFor(ctx, w.sampler, func(s sample) bool {
		return s.found && w.w.matches(s.value)
	})
	if err == nil {
		w.setState(Matched)
		return nil
	}

	var te *poll.TimeoutError
	if !errors.As(err, &te) {
		return err
	}
	w.setState(TimedOut)
	w.mu.Lock()
	defer w.mu.Unlock()
	expected := w.w.Target
	if w.w.Condition != nil {
		expected = w.w.ConditionDescription
	}
	return &ResourceWrongStatusError{
		Resource:    w.w.describe(),
		Field:       w.w.FieldPath,
		Expected:    expected,
		Conditional: w.w.Condition != nil,
		Last:        w.last,
		Observed:    w.name != "",
		Elapsed:     te.Elapsed,
	}
}

// Until builds and waits on a Watch in one call.
func Until(ctx context.Context, r Reader, w Watch, opts ...poll.Option) error {
	watcher, err := New(r, w, opts...)
	if err != nil {
		return err
	}
	return watcher.Wait(ctx)
}

// ForPhase waits for {.status.phase} of ref to equal phase.
func ForPhase(ctx context.Context, r Reader, ref ocp.Ref, phase string, timeout, interval time.Duration, opts ...poll.Option) error {
	return Until(ctx, r, Watch{
		Ref:       ref,
		FieldPath: "{.status.phase}",
		Target:    phase,
		Timeout:   timeout,
		Interval:  interval,
	}, opts...)
}
