package controller

import (
	"context"
	"testing"
	"time"

	"github.com/joshmeranda/resourcefilter/pkg/filter"
	"github.com/joshmeranda/resourcefilter/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apicorev1 "k8s.io/api/core/v1"
	apimetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/fake"
)

const TestWaitDuration = time.Second * 5

var pods = schema.GroupVersionResource{Version: "v1", Resource: "pods"}

func samplePod(namespace string, name string, phase apicorev1.PodPhase) *apicorev1.Pod {
	return &apicorev1.Pod{
		TypeMeta: apimetav1.TypeMeta{
			Kind:       "Pod",
			APIVersion: "v1",
		},
		ObjectMeta: apimetav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Status: apicorev1.PodStatus{
			Phase: phase,
		},
	}
}

func newFakeClient(t *testing.T, objects ...runtime.Object) dynamic.Interface {
	scheme := runtime.NewScheme()
	require.NoError(t, apicorev1.AddToScheme(scheme))

	return fake.NewSimpleDynamicClient(scheme, objects...)
}

func receive(t *testing.T, matches chan Match) Match {
	t.Helper()

	select {
	case m := <-matches:
		return m
	case <-time.After(TestWaitDuration):
		t.Fatalf("timed out waiting for a match")
	}

	return Match{}
}

func TestController(t *testing.T) {
	client := newFakeClient(t,
		samplePod("default", "web", apicorev1.PodRunning),
		samplePod("default", "batch", apicorev1.PodPending),
	)

	matches := make(chan Match, 16)

	controller, err := NewController(client, pods, Options{
		Filter: filter.MustCompile("status.phase=Running"),
		OnMatch: func(m Match) {
			matches <- m
		},
	})
	require.NoError(t, err)

	require.NoError(t, controller.Start(1))
	defer controller.Stop()

	m := receive(t, matches)
	assert.Equal(t, HandleAdd, m.Kind)
	assert.Equal(t, "default/web", m.Name)

	record, err := source.FromObject(samplePod("default", "batch", apicorev1.PodRunning))
	require.NoError(t, err)

	_, err = client.Resource(pods).Namespace("default").Update(context.Background(), &unstructured.Unstructured{Object: record}, apimetav1.UpdateOptions{})
	require.NoError(t, err)

	m = receive(t, matches)
	assert.Equal(t, HandleUpdate, m.Kind)
	assert.Equal(t, "default/batch", m.Name)

	require.NoError(t, client.Resource(pods).Namespace("default").Delete(context.Background(), "web", apimetav1.DeleteOptions{}))

	m = receive(t, matches)
	assert.Equal(t, HandleDelete, m.Kind)
	assert.Equal(t, "default/web", m.Name)
}

func TestControllerNamespace(t *testing.T) {
	client := newFakeClient(t,
		samplePod("default", "web", apicorev1.PodRunning),
		samplePod("other", "db", apicorev1.PodRunning),
	)

	matches := make(chan Match, 16)

	controller, err := NewController(client, pods, Options{
		Filter:    filter.MustCompile(""),
		Namespace: "other",
		OnMatch: func(m Match) {
			matches <- m
		},
	})
	require.NoError(t, err)

	require.NoError(t, controller.Start(1))

	m := receive(t, matches)
	assert.Equal(t, "other/db", m.Name)

	require.NoError(t, controller.Stop())
	assert.Empty(t, matches)
}

func TestControllerStartStop(t *testing.T) {
	controller, err := NewController(newFakeClient(t), pods, Options{
		Filter: filter.MustCompile(""),
	})
	require.NoError(t, err)

	assert.Error(t, controller.Stop())

	require.NoError(t, controller.Start(1))
	assert.Error(t, controller.Start(1))

	assert.NoError(t, controller.Stop())
}

func TestNewControllerNoFilter(t *testing.T) {
	_, err := NewController(newFakeClient(t), pods, Options{})
	assert.Error(t, err)
}
