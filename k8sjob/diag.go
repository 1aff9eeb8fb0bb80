package k8sjob

import (
	"context"
	"fmt"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Diagnostic returns the Job's failure condition message for an errored
// training, or "" when the job is healthy or unreachable.
func (f *Future) Diagnostic(ctx context.Context) string {
	job, err := f.trainer.clientset.BatchV1().Jobs(f.trainer.namespace).Get(ctx, f.jobName, metav1.GetOptions{})
	if err != nil {
		return ""
	}

	for _, cond := range job.Status.Conditions {
		if cond.Type != batchv1.JobFailed || cond.Status != corev1.ConditionTrue {
			continue
		}
		if cond.Message != "" {
			return cond.Message
		}
		return cond.Reason
	}
	return ""
}

// Logs returns the concatenated logs of the training pods. Multiple pods
// (retries, parallel indexes) are separated by a header line.
func (f *Future) Logs(ctx context.Context) (string, error) {
	pods := f.trainer.clientset.CoreV1().Pods(f.trainer.namespace)

	list, err := pods.List(ctx, metav1.ListOptions{
		LabelSelector: "job-name=" + f.jobName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list pods for job %s: %w", f.jobName, err)
	}
	if len(list.Items) == 0 {
		return "", fmt.Errorf("no pods found for job %s", f.jobName)
	}

	var buf strings.Builder
	for _, pod := range list.Items {
		raw, err := pods.GetLogs(pod.Name, &corev1.PodLogOptions{}).DoRaw(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get logs for pod %s: %w", pod.Name, err)
		}
		if len(list.Items) > 1 {
			fmt.Fprintf(&buf, "==> %s <==\n", pod.Name)
		}
		buf.Write(raw)
	}
	return buf.String(), nil
}
