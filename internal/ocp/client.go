package ocp

import (
	"context"
	"fmt"
	"os"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

// Accessor reads and writes resources on one cluster.
type Accessor interface {
	// Get returns a single named resource.
	Get(ctx context.Context, ref Ref) (*unstructured.Unstructured, error)

	// List returns every resource matching ref's namespace and selector.
	List(ctx context.Context, ref Ref) ([]unstructured.Unstructured, error)

	// ApplyManifests applies multi-document YAML using Server-Side Apply.
	ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error

	// Apply applies a single object using Server-Side Apply.
	Apply(ctx context.Context, obj *unstructured.Unstructured, fieldManager string) error

	// Patch applies a JSON or merge patch to a named resource.
	Patch(ctx context.Context, ref Ref, pt types.PatchType, data []byte) error

	// Kube returns the typed clientset for core resources.
	Kube() kubernetes.Interface
}

// client implements Accessor using k8s.io/client-go.
type client struct {
	clientset     kubernetes.Interface
	dynamicClient dynamic.Interface
	mapper        meta.RESTMapper
}

// NewFromKubeconfigFile creates an Accessor from a kubeconfig path.
func NewFromKubeconfigFile(path string) (Accessor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kubeconfig %s: %w", path, err)
	}
	return NewFromKubeconfig(data)
}

// NewFromKubeconfig creates an Accessor from kubeconfig bytes.
//
// The REST mapper discovers lazily and is reset when a kind is unknown, so
// CRDs installed by an operator earlier in the run become addressable.
func NewFromKubeconfig(kubeconfig []byte) (Accessor, error) {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST config from kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient))

	return &client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		mapper:        mapper,
	}, nil
}

// NewFromClients creates an Accessor from pre-configured clients.
// This is useful for testing with fake clients.
func NewFromClients(
	clientset kubernetes.Interface,
	dynamicClient dynamic.Interface,
	mapper meta.RESTMapper,
) Accessor {
	return &client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		mapper:        mapper,
	}
}

func (c *client) Kube() kubernetes.Interface {
	return c.clientset
}

// resource resolves gvk and namespace to a dynamic resource interface.
func (c *client) resource(gvk schema.GroupVersionKind, namespace string) (dynamic.ResourceInterface, error) {
	mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if meta.IsNoMatchError(err) {
		if r, ok := c.mapper.(meta.ResettableRESTMapper); ok {
			r.Reset()
			mapping, err = c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err)
	}

	ri := c.dynamicClient.Resource(mapping.Resource)
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		if namespace == "" {
			namespace = metav1.NamespaceDefault
		}
		return ri.Namespace(namespace), nil
	}
	return ri, nil
}

func (c *client) Get(ctx context.Context, ref Ref) (*unstructured.Unstructured, error) {
	if ref.Name == "" {
		return nil, fmt.Errorf("get %s: name is required", ref)
	}
	ri, err := c.resource(ref.GVK, ref.Namespace)
	if err != nil {
		return nil, err
	}
	obj, err := ri.Get(ctx, ref.Name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", ref, err)
	}
	return obj, nil
}

func (c *client) List(ctx context.Context, ref Ref) ([]unstructured.Unstructured, error) {
	ri, err := c.resource(ref.GVK, ref.Namespace)
	if err != nil {
		return nil, err
	}
	list, err := ri.List(ctx, metav1.ListOptions{LabelSelector: ref.Selector})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", ref, err)
	}
	return list.Items, nil
}

func (c *client) Patch(ctx context.Context, ref Ref, pt types.PatchType, data []byte) error {
	ri, err := c.resource(ref.GVK, ref.Namespace)
	if err != nil {
		return err
	}
	if _, err := ri.Patch(ctx, ref.Name, pt, data, metav1.PatchOptions{}); err != nil {
		return fmt.Errorf("failed to patch %s: %w", ref, err)
	}
	return nil
}
