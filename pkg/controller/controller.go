package controller

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshmeranda/resourcefilter/pkg/filter"
	"go.uber.org/zap"
	apimetav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/util/workqueue"
)

type Options struct {
	Filter *filter.Filter
	Logger *zap.SugaredLogger

	// Namespace limits the watched objects to a single namespace, all namespaces if empty.
	Namespace string

	// Selector is a label selector limiting the watched objects.
	Selector string

	Resync time.Duration

	// OnMatch is called from a worker goroutine for every handled object which matches Filter.
	OnMatch func(Match)
}

// Controller watches the objects of a single resource and reports those which match a filter as they are added,
// updated, or deleted.
type Controller struct {
	Options

	informerFactory dynamicinformer.DynamicSharedInformerFactory
	informerSynced  cache.InformerSynced

	workQueue workqueue.RateLimitingInterface

	stopChanMu *sync.Mutex
	stopChan   chan struct{}
	workers    *sync.WaitGroup
}

func NewController(client dynamic.Interface, gvr schema.GroupVersionResource, opts Options) (*Controller, error) {
	if opts.Filter == nil {
		return nil, fmt.Errorf("a filter is required")
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	if opts.OnMatch == nil {
		opts.OnMatch = func(Match) {}
	}

	informerFactory := dynamicinformer.NewFilteredDynamicSharedInformerFactory(client, opts.Resync, opts.Namespace, func(options *apimetav1.ListOptions) {
		options.LabelSelector = opts.Selector
	})

	informer := informerFactory.ForResource(gvr).Informer()

	controller := &Controller{
		Options: opts,

		informerFactory: informerFactory,
		informerSynced:  informer.HasSynced,

		workQueue: workqueue.NewRateLimitingQueue(workqueue.DefaultControllerRateLimiter()),

		stopChanMu: &sync.Mutex{},
		workers:    &sync.WaitGroup{},
	}

	informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			controller.enqueue(HandleAdd, obj)
		},
		UpdateFunc: func(_, obj interface{}) {
			controller.enqueue(HandleUpdate, obj)
		},
		DeleteFunc: func(obj interface{}) {
			controller.enqueue(HandleDelete, obj)
		},
	})

	return controller, nil
}

func (controller *Controller) enqueue(kind HandleKind, obj interface{}) {
	if tombstone, ok := obj.(cache.DeletedFinalStateUnknown); ok {
		obj = tombstone.Obj
	}

	object, ok := obj.(*unstructured.Unstructured)
	if !ok {
		controller.Logger.Errorf("could not handle object of type %T", obj)
		return
	}

	controller.workQueue.Add(job{
		id:     uuid.New(),
		kind:   kind,
		object: object.DeepCopy(),
	})
}

func (controller *Controller) processNextWorkItem() bool {
	obj, shutdown := controller.workQueue.Get()
	if shutdown {
		return false
	}
	defer controller.workQueue.Done(obj)

	j, ok := obj.(job)
	if !ok {
		controller.Logger.Errorf("could not understand work item of type %T", obj)
		controller.workQueue.Forget(obj)
		return true
	}

	controller.handle(j)
	controller.workQueue.Forget(obj)

	return true
}

func (controller *Controller) Start(nWorkers int) error {
	controller.stopChanMu.Lock()
	defer controller.stopChanMu.Unlock()

	if controller.stopChan != nil {
		return fmt.Errorf("controller is already running")
	}
	defer runtime.HandleCrash()

	stopChan := make(chan struct{})
	controller.stopChan = stopChan

	controller.Logger.Infof("starting controller")

	controller.informerFactory.Start(stopChan)

	controller.Logger.Debugf("waiting for informer caches to sync")
	if ok := cache.WaitForCacheSync(stopChan, controller.informerSynced); !ok {
		close(stopChan)
		controller.stopChan = nil

		return fmt.Errorf("could not wait for caches to sync")
	}

	controller.Logger.Debugf("starting %d workers", nWorkers)
	for i := 0; i < nWorkers; i++ {
		controller.workers.Add(1)

		go func() {
			defer controller.workers.Done()

			wait.Until(func() {
				for controller.processNextWorkItem() {
				}
			}, time.Second, stopChan)
		}()
	}

	controller.Logger.Infof("started controller")

	return nil
}

// Stop shuts the workers down after they finish the jobs they are handling. A stopped controller cannot be started
// again.
func (controller *Controller) Stop() error {
	controller.stopChanMu.Lock()
	defer controller.stopChanMu.Unlock()

	if controller.stopChan == nil {
		return fmt.Errorf("controller was not running")
	}

	controller.Logger.Infof("stopping controller")

	close(controller.stopChan)
	controller.stopChan = nil

	controller.workQueue.ShutDown()
	controller.workers.Wait()

	return nil
}
