// Package ocptest provides in-memory stand-ins for the ocp collaborators.
package ocptest

import (
	"context"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/ocp4mco/ocp4mco/internal/ocp"
)

var clusterScoped = []schema.GroupVersionKind{
	ocp.KindNamespace,
	ocp.KindNode,
	ocp.KindClusterVersion,
	ocp.KindProxy,
	ocp.KindOperatorHub,
	ocp.KindConsole,
	ocp.KindManagedCluster,
	ocp.KindMirrorPeer,
	ocp.KindDRPolicy,
	ocp.KindClusterRoleBinding,
}

var namespaced = []schema.GroupVersionKind{
	ocp.KindConfigMap,
	ocp.KindSecret,
	ocp.KindCatalogSource,
	ocp.KindSubscription,
	ocp.KindCSV,
	ocp.KindOperatorGroup,
	ocp.KindPackageManifest,
	ocp.KindMultiClusterHub,
	ocp.KindManagedClusterSetBinding,
	ocp.KindPlacement,
	ocp.KindGitOpsCluster,
	ocp.KindStorageCluster,
	ocp.KindDataProtectionApplication,
	ocp.KindKlusterletAddonConfig,
}

// Mapper returns a REST mapper that knows every kind declared by ocp.
func Mapper() meta.RESTMapper {
	m := meta.NewDefaultRESTMapper(nil)
	for _, gvk := range clusterScoped {
		m.Add(gvk, meta.RESTScopeRoot)
	}
	for _, gvk := range namespaced {
		m.Add(gvk, meta.RESTScopeNamespace)
	}
	return m
}

// Fake bundles the fake clients behind an Accessor so tests can seed and
// mutate state between polls.
//
// The fake dynamic client rejects server-side apply, so Apply and
// ApplyManifests upsert objects directly, record them and call OnApply.
type Fake struct {
	ocp.Accessor
	Dynamic   *dynamicfake.FakeDynamicClient
	Clientset *fake.Clientset
	// OnApply runs after every applied object, e.g. to simulate an
	// operator reconciling it.
	OnApply func(obj *unstructured.Unstructured)
	// ApplyErr, when set, is returned for objects it yields an error for.
	ApplyErr func(obj *unstructured.Unstructured) error

	mapper  meta.RESTMapper
	mu      sync.Mutex
	applied []*unstructured.Unstructured
}

// NewAccessor returns a Fake seeded with unstructured objects for the
// dynamic client and typed objects for the clientset.
func NewAccessor(objects []*unstructured.Unstructured, typed ...runtime.Object) *Fake {
	mapper := Mapper()
	listKinds := map[schema.GroupVersionResource]string{}
	for _, gvk := range append(append([]schema.GroupVersionKind{}, clusterScoped...), namespaced...) {
		mapping, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		if err != nil {
			panic(err)
		}
		listKinds[mapping.Resource] = gvk.Kind + "List"
	}

	objs := make([]runtime.Object, 0, len(objects))
	for _, o := range objects {
		objs = append(objs, o)
	}
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(), listKinds, objs...)
	cs := fake.NewClientset(typed...)

	return &Fake{
		Accessor:  ocp.NewFromClients(cs, dyn, mapper),
		Dynamic:   dyn,
		Clientset: cs,
		mapper:    mapper,
	}
}

// Apply implements ocp.Accessor.
func (f *Fake) Apply(ctx context.Context, obj *unstructured.Unstructured, _ string) error {
	if f.ApplyErr != nil {
		if err := f.ApplyErr(obj); err != nil {
			return err
		}
	}
	if err := f.Upsert(ctx, obj.DeepCopy()); err != nil {
		return err
	}
	f.mu.Lock()
	f.applied = append(f.applied, obj.DeepCopy())
	hook := f.OnApply
	f.mu.Unlock()
	if hook != nil {
		hook(obj)
	}
	return nil
}

// ApplyManifests implements ocp.Accessor.
func (f *Fake) ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error {
	objs, err := ocp.DecodeManifests(manifests)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if err := f.Apply(ctx, obj, fieldManager); err != nil {
			return err
		}
	}
	return nil
}

// Applied returns every applied object in order.
func (f *Fake) Applied() []*unstructured.Unstructured {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*unstructured.Unstructured(nil), f.applied...)
}

// AppliedKinds returns "Kind/name" for every applied object in order.
func (f *Fake) AppliedKinds() []string {
	var out []string
	for _, obj := range f.Applied() {
		out = append(out, obj.GetKind()+"/"+obj.GetName())
	}
	return out
}

// Upsert creates or replaces obj in the fake dynamic client.
func (f *Fake) Upsert(ctx context.Context, obj *unstructured.Unstructured) error {
	mapping, err := f.mapper.RESTMapping(obj.GroupVersionKind().GroupKind(), obj.GroupVersionKind().Version)
	if err != nil {
		return err
	}
	tracker := f.Dynamic.Tracker()
	if _, err := tracker.Get(mapping.Resource, obj.GetNamespace(), obj.GetName()); err == nil {
		return tracker.Update(mapping.Resource, obj, obj.GetNamespace())
	}
	return tracker.Create(mapping.Resource, obj, obj.GetNamespace())
}

// Object builds an unstructured object of gvk.
func Object(gvk schema.GroupVersionKind, namespace, name string, fields map[string]any) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{}}
	for k, v := range fields {
		obj.Object[k] = v
	}
	obj.SetGroupVersionKind(gvk)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return obj
}

// Call is one recorded Executor invocation.
type Call struct {
	Args  []string
	Input []byte
}

// Line returns the space-joined arguments.
func (c Call) Line() string { return strings.Join(c.Args, " ") }

// Executor records calls and answers them through Handler. A nil Handler
// succeeds with empty output.
type Executor struct {
	Handler func(call Call) (*ocp.Result, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements ocp.Executor.
func (e *Executor) Run(ctx context.Context, args ...string) (*ocp.Result, error) {
	return e.RunWithInput(ctx, nil, args...)
}

// RunWithInput implements ocp.Executor.
func (e *Executor) RunWithInput(_ context.Context, input []byte, args ...string) (*ocp.Result, error) {
	call := Call{Args: append([]string(nil), args...), Input: input}
	e.mu.Lock()
	e.calls = append(e.calls, call)
	handler := e.Handler
	e.mu.Unlock()

	if handler == nil {
		return &ocp.Result{}, nil
	}
	return handler(call)
}

// Calls returns a copy of the recorded calls.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Lines returns the recorded calls as joined argument strings.
func (e *Executor) Lines() []string {
	var out []string
	for _, c := range e.Calls() {
		out = append(out, c.Line())
	}
	return out
}
