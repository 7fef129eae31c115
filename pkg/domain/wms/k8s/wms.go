package k8s

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/pointer"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	kubeapierr "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	labelManagedBy = "app.kubernetes.io/managed-by"
	managerName    = "cm-service"

	annotationFullname = "cm-service/fullname"
)

// adapter runs element workloads as Kubernetes batch Jobs.
type adapter struct { // implements wms.Interface
	clientset kubernetes.Interface
	namespace string
}

func New(clientset kubernetes.Interface, namespace string) *adapter {
	return &adapter{clientset: clientset, namespace: namespace}
}

var _ wms.Interface = &adapter{}

// jobName derives a stable DNS-1123 name from an element fullname.
// The hash suffix keeps names unique after truncation.
func jobName(fullname string) string {
	h := fnv.New32a()
	h.Write([]byte(fullname))
	suffix := fmt.Sprintf("-%08x", h.Sum32())

	name := strings.ToLower(fullname)
	name = strings.Map(func(r rune) rune {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			return r
		}
		return '-'
	}, name)
	name = strings.Trim(name, "-")

	if max := 63 - len(suffix); len(name) > max {
		name = name[:max]
	}
	return name + suffix
}

func (a *adapter) Submit(ctx context.Context, sub wms.Submission) (wms.Handle, error) {
	name := jobName(sub.Fullname)

	env := make([]corev1.EnvVar, 0, len(sub.Env))
	for k, v := range sub.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: a.namespace,
			Labels: map[string]string{
				labelManagedBy: managerName,
			},
			Annotations: map[string]string{
				annotationFullname: sub.Fullname,
			},
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: pointer.Ref[int32](0),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{labelManagedBy: managerName},
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:    "payload",
							Image:   sub.Image,
							Command: sub.Command,
							Env:     env,
						},
					},
				},
			},
		},
	}

	created, err := a.clientset.BatchV1().Jobs(a.namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		if kubeapierr.IsAlreadyExists(err) {
			// crash-resubmit: reattach to the existing workload
			return wms.Handle{WmsJobID: a.namespace + "/" + name}, nil
		}
		return wms.Handle{}, &domain.DispatchError{
			Transient: !permanentSubmitError(err),
			Err:       err,
		}
	}
	return wms.Handle{WmsJobID: created.Namespace + "/" + created.Name}, nil
}

// permanentSubmitError tells a rejected submission from a congested
// or unreachable apiserver.
func permanentSubmitError(err error) bool {
	return kubeapierr.IsInvalid(err) ||
		kubeapierr.IsBadRequest(err) ||
		kubeapierr.IsForbidden(err) ||
		kubeapierr.IsRequestEntityTooLargeError(err)
}

func splitHandle(wmsJobId string) (namespace, name string, err error) {
	parts := strings.SplitN(wmsJobId, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed workload handle: %s", wmsJobId)
	}
	return parts[0], parts[1], nil
}

func (a *adapter) Status(ctx context.Context, wmsJobId string) (wms.Report, error) {
	namespace, name, err := splitHandle(wmsJobId)
	if err != nil {
		return wms.Report{}, &domain.PollError{Err: err}
	}

	job, err := a.clientset.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return wms.Report{}, &domain.PollError{Err: err}
	}

	report := wms.Report{
		Counts: domain.WmsTaskCounts{
			NRunning:   int(job.Status.Active),
			NSucceeded: int(job.Status.Succeeded),
			NFailed:    int(job.Status.Failed),
		},
	}
	if report.Counts.Total() == 0 {
		// accepted but not started yet
		report.Counts.NPending = 1
	}

	for _, cond := range job.Status.Conditions {
		if cond.Type == batchv1.JobFailed && cond.Status == corev1.ConditionTrue {
			report.Diagnostics = append(report.Diagnostics, wms.Diagnostic{
				TaskName: name,
				Message:  fmt.Sprintf("%s: %s", cond.Reason, cond.Message),
			})
		}
	}
	return report, nil
}

func (a *adapter) Cancel(ctx context.Context, wmsJobId string) error {
	namespace, name, err := splitHandle(wmsJobId)
	if err != nil {
		return err
	}

	err = a.clientset.BatchV1().Jobs(namespace).Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: pointer.Ref(metav1.DeletePropagationBackground),
	})
	if err != nil && !kubeapierr.IsNotFound(err) {
		return err
	}
	return nil
}
