package k8sjob

import (
	"encoding/json"
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// jobName derives the cluster Job name from the backend job id. The mapping
// is deterministic so futures can be re-resolved from a training id alone.
func jobName(jobID string) string {
	return "train-" + jobID
}

// buildJob assembles the batch Job for one training. The training id and
// derived save path travel as annotations (they may contain characters that
// labels reject); the container learns its assignment through env vars.
func (t *Trainer) buildJob(jobID, trainingID, savePath, moduleName string, params map[string]any) (*batchv1.Job, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal training params: %w", err)
	}

	resources, err := t.buildResources()
	if err != nil {
		return nil, err
	}

	env := []corev1.EnvVar{
		{Name: "TRAINERD_TRAINING_ID", Value: trainingID},
		{Name: "TRAINERD_MODULE", Value: moduleName},
		{Name: "TRAINERD_PARAMS", Value: string(paramsJSON)},
		{Name: "TRAINERD_SAVE_PATH", Value: savePath},
	}

	labels := map[string]string{
		labelManagedBy: "trainerd",
		labelJobID:     jobID,
		labelTrainer:   t.name,
	}
	annotations := map[string]string{
		annotationTrainingID: trainingID,
		annotationSavePath:   savePath,
		annotationModule:     moduleName,
	}

	backoffLimit := int32(0)
	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:        jobName(jobID),
			Namespace:   t.namespace,
			Labels:      labels,
			Annotations: annotations,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: labels,
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:      "trainer",
							Image:     t.image,
							Command:   t.command,
							Env:       env,
							Resources: resources,
						},
					},
				},
			},
		},
	}, nil
}

func (t *Trainer) buildResources() (corev1.ResourceRequirements, error) {
	requests := corev1.ResourceList{}

	if t.cpu != "" {
		qty, err := resource.ParseQuantity(t.cpu)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("invalid cpu quantity %q: %w", t.cpu, err)
		}
		requests[corev1.ResourceCPU] = qty
	}
	if t.memory != "" {
		qty, err := resource.ParseQuantity(t.memory)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("invalid memory quantity %q: %w", t.memory, err)
		}
		requests[corev1.ResourceMemory] = qty
	}

	limits := corev1.ResourceList{}
	if t.gpus > 0 {
		limits["nvidia.com/gpu"] = *resource.NewQuantity(int64(t.gpus), resource.DecimalSI)
	}

	reqs := corev1.ResourceRequirements{}
	if len(requests) > 0 {
		reqs.Requests = requests
	}
	if len(limits) > 0 {
		reqs.Limits = limits
	}
	return reqs, nil
}
