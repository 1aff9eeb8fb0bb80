// Package k8sjob implements a trainer backend that runs each training job
// as a Kubernetes batch Job. Job state lives in the cluster, so futures can
// be reconstructed by training id after a server restart. Trained artifacts
// are expected in the artifact store under the future's save path.
package k8sjob

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/trainops/trainerd/config"
	"github.com/trainops/trainerd/module"
	"github.com/trainops/trainerd/storage"
	"github.com/trainops/trainerd/training"
)

// Type is the registry type name for this backend.
const Type = "kubernetes"

const (
	annotationTrainingID = "trainerd.io/training-id"
	annotationSavePath   = "trainerd.io/save-path"
	annotationModule     = "trainerd.io/module"
	annotationCanceled   = "trainerd.io/canceled"

	labelManagedBy = "app.kubernetes.io/managed-by"
	labelJobID     = "trainerd.io/job-id"
	labelTrainer   = "trainerd.io/trainer"

	pollInterval = 2 * time.Second
)

type options struct {
	Kubeconfig string         `yaml:"kubeconfig"`
	Namespace  string         `yaml:"namespace"`
	Image      string         `yaml:"image"`
	Command    []string       `yaml:"command"`
	CPU        string         `yaml:"cpu"`
	Memory     string         `yaml:"memory"`
	GPUs       int            `yaml:"gpus"`
	Storage    map[string]any `yaml:"storage"`
}

// Trainer dispatches training jobs to a Kubernetes cluster.
type Trainer struct {
	name      string
	namespace string
	image     string
	command   []string
	cpu       string
	memory    string
	gpus      int
	clientset kubernetes.Interface
	artifacts artifactStore
}

// artifactStore is the slice of the artifact store this backend needs.
type artifactStore interface {
	DownloadDir(ctx context.Context, prefix, localDir string) error
}

// New constructs a Kubernetes trainer. Config options:
//
//	kubeconfig: path to a kubeconfig file (in-cluster config if empty)
//	namespace:  namespace jobs are created in (default "default")
//	image:      training container image (required)
//	command:    container command override
//	cpu/memory/gpus: per-job resource requests
//	storage:    artifact store settings (see config.StorageConfig)
func New(instanceName string, cfg map[string]any) (training.Trainer, error) {
	opts := options{Namespace: "default"}
	if err := config.Decode(cfg, &opts); err != nil {
		return nil, err
	}
	if opts.Image == "" {
		return nil, fmt.Errorf("kubernetes trainer %q requires an image", instanceName)
	}

	restConfig, err := buildRestConfig(opts.Kubeconfig)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes clientset: %w", err)
	}

	t := &Trainer{
		name:      instanceName,
		namespace: opts.Namespace,
		image:     opts.Image,
		command:   opts.Command,
		cpu:       opts.CPU,
		memory:    opts.Memory,
		gpus:      opts.GPUs,
		clientset: clientset,
	}

	if len(opts.Storage) > 0 {
		var storageCfg config.StorageConfig
		if err := config.Decode(opts.Storage, &storageCfg); err != nil {
			return nil, err
		}
		t.artifacts, err = storage.New(storageCfg)
		if err != nil {
			return nil, err
		}
	}

	log.Printf("Kubernetes trainer %q initialized (namespace: %s, image: %s)", instanceName, opts.Namespace, opts.Image)
	return t, nil
}

func buildRestConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig != "" {
		restConfig, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
		}
		return restConfig, nil
	}

	restConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build in-cluster config: %w", err)
	}
	return restConfig, nil
}

// Name returns the configured instance name.
func (t *Trainer) Name() string { return t.name }

// Train creates a batch Job for the module and returns its future.
func (t *Trainer) Train(ctx context.Context, mod module.Module, req training.TrainRequest) (training.ModelFuture, error) {
	jobID := uuid.New().String()
	base, err := training.NewFutureBase(t.name, jobID, req.SaveWithID, req.SavePath)
	if err != nil {
		return nil, err
	}

	job, err := t.buildJob(jobID, base.ID(), base.SavePath(), mod.Name(), req.Params)
	if err != nil {
		return nil, err
	}

	created, err := t.clientset.BatchV1().Jobs(t.namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	log.Printf("Created job %s/%s for training %s", created.Namespace, created.Name, base.ID())

	return &Future{
		FutureBase: base,
		trainer:    t,
		jobName:    job.Name,
		moduleName: mod.Name(),
	}, nil
}

// GetModelFuture reconstructs a future from the cluster's job state.
func (t *Trainer) GetModelFuture(ctx context.Context, trainingID string) (training.ModelFuture, error) {
	owner, jobID, err := training.ParseID(trainingID)
	if err != nil {
		return nil, err
	}
	if owner != t.name {
		return nil, fmt.Errorf("%w: %q was issued by %q, not %q", training.ErrWrongTrainer, trainingID, owner, t.name)
	}

	job, err := t.clientset.BatchV1().Jobs(t.namespace).Get(ctx, jobName(jobID), metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %q", training.ErrNotFound, trainingID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if id := job.Annotations[annotationTrainingID]; id != trainingID {
		return nil, fmt.Errorf("%w: job %s carries training id %q", training.ErrNotFound, job.Name, id)
	}

	// The annotation holds the already-derived save path, so re-deriving
	// with saveWithID=false keeps it verbatim.
	base, err := training.NewFutureBase(t.name, jobID, false, job.Annotations[annotationSavePath])
	if err != nil {
		return nil, err
	}

	return &Future{
		FutureBase: base,
		trainer:    t,
		jobName:    job.Name,
		moduleName: job.Annotations[annotationModule],
	}, nil
}

// Future is the handle to one training job running in the cluster.
type Future struct {
	training.FutureBase

	trainer    *Trainer
	jobName    string
	moduleName string

	mu       sync.Mutex
	canceled bool
}

// GetStatus maps the Job's counters onto the training lifecycle:
// succeeded jobs are COMPLETED, failed jobs are ERRORED, active pods mean
// RUNNING, anything else is still QUEUED.
func (f *Future) GetStatus(ctx context.Context) (training.Status, error) {
	f.mu.Lock()
	canceled := f.canceled
	f.mu.Unlock()

	job, err := f.trainer.clientset.BatchV1().Jobs(f.trainer.namespace).Get(ctx, f.jobName, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			if canceled {
				return training.StatusCanceled, nil
			}
			return "", fmt.Errorf("%w: job %s", training.ErrNotFound, f.jobName)
		}
		return "", fmt.Errorf("failed to get job status: %w", err)
	}

	switch {
	case job.Status.Succeeded > 0:
		return training.StatusCompleted, nil
	case job.Status.Failed > 0:
		return training.StatusErrored, nil
	case canceled || job.Annotations[annotationCanceled] == "true":
		return training.StatusCanceled, nil
	case job.Status.Active > 0:
		return training.StatusRunning, nil
	default:
		return training.StatusQueued, nil
	}
}

// Cancel marks the Job canceled and suspends it, which tears its pods
// down. The cancellation lives in the Job's annotations, so futures
// reconstructed later (or by another process) keep reporting CANCELED.
// Terminal jobs are left alone.
func (f *Future) Cancel(ctx context.Context) error {
	jobs := f.trainer.clientset.BatchV1().Jobs(f.trainer.namespace)

	job, err := jobs.Get(ctx, f.jobName, metav1.GetOptions{})
	if err != nil {
		if k8serrors.IsNotFound(err) {
			// Nothing left to stop.
			f.mu.Lock()
			f.canceled = true
			f.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job.Status.Succeeded > 0 || job.Status.Failed > 0 {
		return nil
	}

	f.mu.Lock()
	f.canceled = true
	f.mu.Unlock()

	if job.Annotations == nil {
		job.Annotations = map[string]string{}
	}
	job.Annotations[annotationCanceled] = "true"
	suspend := true
	job.Spec.Suspend = &suspend
	if _, err := jobs.Update(ctx, job, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	log.Printf("Canceled training %s (job %s)", f.ID(), f.jobName)
	return nil
}

// Wait polls the job until it reaches a terminal state or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, err := f.GetStatus(ctx)
		if err != nil {
			return err
		}
		if status.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Load downloads the trained artifact from the store and hands it to the
// module's loader.
func (f *Future) Load(ctx context.Context) (module.Model, error) {
	status, err := f.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status != training.StatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", training.ErrNotComplete, f.ID(), status)
	}
	if f.SavePath() == "" {
		return nil, fmt.Errorf("training %s has no save path to load from", f.ID())
	}
	if f.trainer.artifacts == nil {
		return nil, fmt.Errorf("trainer %q has no artifact store configured", f.trainer.name)
	}

	mod, err := module.Get(f.moduleName)
	if err != nil {
		return nil, err
	}

	// The scratch copy is only needed until the module has loaded it.
	dir, err := os.MkdirTemp("", "trainerd-load-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := f.trainer.artifacts.DownloadDir(ctx, f.SavePath(), dir); err != nil {
		return nil, err
	}

	return mod.Load(ctx, dir)
}
