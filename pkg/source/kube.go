package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	apimetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/clientcmd"
)

// Kube reads records from the objects of a kubernetes cluster.
type Kube struct {
	client dynamic.Interface
}

func NewKube(client dynamic.Interface) *Kube {
	return &Kube{
		client: client,
	}
}

// Client returns the dynamic client objects are listed with.
func (kube *Kube) Client() dynamic.Interface {
	return kube.client
}

// NewKubeForConfig connects to the cluster described by the kubeconfig file at the given path, or the in-cluster
// config when the path is empty.
func NewKubeForConfig(kubeconfig string) (*Kube, error) {
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	client, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("could not create dynamic client for config: %w", err)
	}

	return NewKube(client), nil
}

// List returns the objects of the given resource matching the label selector. An empty namespace lists across all
// namespaces.
func (kube *Kube) List(ctx context.Context, gvr schema.GroupVersionResource, namespace string, selector string) ([]map[string]any, error) {
	var resource dynamic.ResourceInterface = kube.client.Resource(gvr)
	if namespace != "" {
		resource = kube.client.Resource(gvr).Namespace(namespace)
	}

	list, err := resource.List(ctx, apimetav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("could not list %s: %w", gvr.String(), err)
	}

	return lo.Map(list.Items, func(item unstructured.Unstructured, _ int) map[string]any {
		return item.Object
	}), nil
}

// ParseResource resolves a resource name such as "pods" or "deployments.v1.apps". The group and version are only
// used when name does not carry its own.
func ParseResource(name string, group string, version string) schema.GroupVersionResource {
	if strings.Count(name, ".") >= 2 {
		if gvr, _ := schema.ParseResourceArg(name); gvr != nil {
			return *gvr
		}
	}

	if version == "" {
		version = "v1"
	}

	return schema.GroupVersionResource{
		Group:    group,
		Version:  version,
		Resource: name,
	}
}

// FromObject converts a typed kubernetes object into a record.
func FromObject(obj runtime.Object) (map[string]any, error) {
	record, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("could not convert object: %w", err)
	}

	return record, nil
}

// ObjectName returns "namespace/name" for a namespaced record and "name" otherwise.
func ObjectName(record map[string]any) string {
	object := unstructured.Unstructured{Object: record}

	if namespace := object.GetNamespace(); namespace != "" {
		return namespace + "/" + object.GetName()
	}

	return object.GetName()
}
