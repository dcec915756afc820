package ocp

import (
	"context"
	"fmt"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/ocp4mco/ocp4mco/internal/util/poll"
)

// WaitForPresent polls until ref exists and returns it. When ref has no
// name, the first listed item is returned. NotFound and discovery errors
// count as "not yet present".
func WaitForPresent(ctx context.Context, a Accessor, ref Ref, timeout, interval time.Duration, opts ...poll.Option) (*unstructured.Unstructured, error) {
	opts = append([]poll.Option{poll.WithDescription("wait for %s", ref)}, opts...)
	sampler, err := poll.New(timeout, interval, func(ctx context.Context) (*unstructured.Unstructured, error) {
		return lookup(ctx, a, ref)
	}, opts...)
	if err != nil {
		return nil, err
	}
	return poll.WaitFor(ctx, sampler, func(obj *unstructured.Unstructured) bool { return obj != nil })
}

func lookup(ctx context.Context, a Accessor, ref Ref) (*unstructured.Unstructured, error) {
	if ref.Name != "" {
		obj, err := a.Get(ctx, ref)
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return obj, err
	}
	items, err := a.List(ctx, ref)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// FilterByName returns the items whose name contains substr.
func FilterByName(items []unstructured.Unstructured, substr string) []unstructured.Unstructured {
	var out []unstructured.Unstructured
	for _, item := range items {
		if strings.Contains(item.GetName(), substr) {
			out = append(out, item)
		}
	}
	return out
}

// ClusterVersion returns the desired OpenShift version of the cluster.
func ClusterVersion(ctx context.Context, a Accessor) (string, error) {
	obj, err := a.Get(ctx, Ref{GVK: KindClusterVersion, Name: "version"})
	if err != nil {
		return "", err
	}
	v, found, err := unstructured.NestedString(obj.Object, "status", "desired", "version")
	if err != nil || !found {
		return "", fmt.Errorf("clusterversion has no desired version")
	}
	return v, nil
}
