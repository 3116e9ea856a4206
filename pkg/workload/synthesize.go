/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

package workload

import (
	"fmt"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/k8s-run/k8r/pkg/naming"
	"github.com/k8s-run/k8r/pkg/source"
)

const (
	// runnerContainerName is the single main container in every pod.
	runnerContainerName = "runner"

	// workspaceDir is where the source tree lands and the command runs.
	workspaceDir = "/workspace"

	// archiveMountDir is where the source ConfigMap is delivered.
	archiveMountDir = "/configmap"

	// sourceVolumeName names the ConfigMap volume in directory mode.
	sourceVolumeName = "source"

	// startupScript, when present in the source tree, runs before the user
	// command.
	startupScript = "k8s-startup.sh"
)

// directorySetup extracts the delivered archive and runs the optional
// startup hook. The archive value is base64 text inside the ConfigMap, so
// it is decoded before untarring.
var directorySetup = fmt.Sprintf(`set -e
cd %[1]s
echo "Extracting source..."
base64 -d %[2]s/%[3]s | tar -xzf -
if [ -f %[4]s ]; then
    echo "Running %[4]s..."
    chmod +x %[4]s
    ./%[4]s
fi`, workspaceDir, archiveMountDir, ArchiveKey, startupScript)

// githubSetup clones the repository and runs the optional startup hook. Git
// is installed on the fly so any alpine-family base image works.
var githubSetup = fmt.Sprintf(`set -e
apk add --no-cache git
cd %[1]s
git clone %%s .
if [ -f %[2]s ]; then
    echo "Running %[2]s..."
    chmod +x %[2]s
    ./%[2]s
fi`, workspaceDir, startupScript)

// PodSpec builds the pod spec for a workload: zero or one setup step, one
// main container running the command, and the source volume when the source
// is a local directory. Secret bindings and labels are applied by the
// caller.
func PodSpec(spec *Spec) corev1.PodSpec {
	var container corev1.Container
	var volumes []corev1.Volume

	switch spec.SourceKind {
	case source.Directory:
		container = directoryContainer(spec)
		volumes = []corev1.Volume{{
			Name: sourceVolumeName,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{
						Name: naming.SourceConfigMapName(spec.Name),
					},
				},
			},
		}}
	case source.GitHub:
		container = githubContainer(spec)
	default:
		// Dockerfile sources arrive here with Image already resolved by the
		// build collaborator, so both remaining kinds run the image as-is.
		container = imageContainer(spec)
	}

	applyResources(&container, spec)

	return corev1.PodSpec{
		Containers: []corev1.Container{container},
		Volumes:    volumes,
	}
}

func directoryContainer(spec *Spec) corev1.Container {
	script := directorySetup + "\necho 'Running command...'\n" + joinCommand(spec.Command)
	return corev1.Container{
		Name:       runnerContainerName,
		Image:      spec.Image,
		Command:    []string{"sh", "-c", script},
		WorkingDir: workspaceDir,
		VolumeMounts: []corev1.VolumeMount{{
			Name:      sourceVolumeName,
			MountPath: archiveMountDir,
			ReadOnly:  true,
		}},
	}
}

func githubContainer(spec *Spec) corev1.Container {
	script := fmt.Sprintf(githubSetup, spec.SourceRef) + "\necho 'Running command...'\n" + joinCommand(spec.Command)
	return corev1.Container{
		Name:       runnerContainerName,
		Image:      spec.Image,
		Command:    []string{"sh", "-c", script},
		WorkingDir: workspaceDir,
	}
}

func imageContainer(spec *Spec) corev1.Container {
	c := corev1.Container{
		Name:  runnerContainerName,
		Image: spec.Image,
	}
	// An empty command falls through to the image entrypoint.
	if len(spec.Command) > 0 {
		c.Command = []string{"/bin/sh", "-c", joinCommand(spec.Command)}
	}
	return c
}

// joinCommand joins without shell escaping so that $VAR expansion keeps
// working inside the pod.
func joinCommand(command []string) string {
	return strings.Join(command, " ")
}

func applyResources(c *corev1.Container, spec *Spec) {
	if spec.CPU == nil && spec.Memory == nil {
		return
	}

	requests := corev1.ResourceList{}
	limits := corev1.ResourceList{}

	// Ranges are pre-validated by resources.Normalize, so MustParse is safe.
	if spec.Memory != nil {
		requests[corev1.ResourceMemory] = resource.MustParse(spec.Memory.Request)
		limits[corev1.ResourceMemory] = resource.MustParse(spec.Memory.Limit)
	}
	if spec.CPU != nil {
		requests[corev1.ResourceCPU] = resource.MustParse(spec.CPU.Request)
		limits[corev1.ResourceCPU] = resource.MustParse(spec.CPU.Limit)
	}

	c.Resources = corev1.ResourceRequirements{
		Requests: requests,
		Limits:   limits,
	}
}

// BuildJob wraps a pod spec in the Job object for this workload.
func BuildJob(spec *Spec, podSpec corev1.PodSpec) *batchv1.Job {
	podSpec.RestartPolicy = spec.RestartPolicy

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    naming.WorkloadLabels(spec.Name, spec.SourceKind, false),
		},
		Spec: batchv1.JobSpec{
			Parallelism:  ptr.To(spec.Replicas),
			Completions:  ptr.To(spec.Replicas),
			BackoffLimit: ptr.To(spec.BackoffLimit),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: naming.PodLabels(spec.Name, false),
				},
				Spec: podSpec,
			},
		},
	}

	if spec.TimeoutSeconds > 0 {
		job.Spec.ActiveDeadlineSeconds = ptr.To(spec.TimeoutSeconds)
	}

	return job
}

// BuildDeployment wraps a pod spec in the Deployment object for this
// workload. Deployments only support the Always restart policy, so the spec
// restart policy is left implicit.
func BuildDeployment(spec *Spec, podSpec corev1.PodSpec) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    naming.WorkloadLabels(spec.Name, spec.SourceKind, true),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(spec.Replicas),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{
					naming.LabelCreatedBy:  naming.CreatedByValue,
					naming.LabelDeployment: spec.Name,
				},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: naming.PodLabels(spec.Name, true),
				},
				Spec: podSpec,
			},
		},
	}
}
