package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	petsapp "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application"
	petstypes "github.com/Apurer/go-gin-pet-finder/internal/domains/pets/application/types"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
	petactivities "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/activities/pets"
	petworkflows "github.com/Apurer/go-gin-pet-finder/internal/platform/temporal/workflows/pets"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalPetWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlinePetWorkflows)(nil)
)

// TemporalPetWorkflows starts pet workflows on a Temporal cluster.
type TemporalPetWorkflows struct {
	client    client.Client
	identity  ports.IdentityResolver
	taskQueue string
}

// NewTemporalPetWorkflows wires a Temporal client into the orchestrator. The
// resolver names the caller before the request leaves the process.
func NewTemporalPetWorkflows(c client.Client, resolver ports.IdentityResolver) *TemporalPetWorkflows {
	return &TemporalPetWorkflows{client: c, identity: resolver, taskQueue: petworkflows.PetRegistrationTaskQueue}
}

// RegisterPet starts the Temporal workflow that registers a pet and waits for its result.
func (o *TemporalPetWorkflows) RegisterPet(ctx context.Context, input petstypes.RegisterPetInput) (*domain.Pet, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal pet workflows not configured")
	}
	if err := petsapp.ValidateRegistration(input); err != nil {
		return nil, err
	}
	caller, err := o.resolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildPetRegistrationWorkflowID(caller, input.IdempotencyKey, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	if strings.TrimSpace(input.IdempotencyKey) != "" {
		// A completed run with the same key must be replayed, never re-run.
		options.WorkflowIDReusePolicy = enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		petworkflows.PetRegistrationWorkflowName,
		petworkflows.PetRegistrationWorkflowInput{
			Registration: petactivities.RegisterPetInput{Command: input, Caller: caller},
			TraceID:      traceComponent,
		},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			return awaitPet(ctx, o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId))
		}
		return nil, err
	}
	return awaitPet(ctx, run)
}

func (o *TemporalPetWorkflows) resolveCaller(ctx context.Context) (string, error) {
	if o.identity == nil {
		return "", fmt.Errorf("%w: no caller identity resolver configured", petsapp.ErrNotAuthorized)
	}
	caller, err := o.identity.CallerIdentity(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", petsapp.ErrNotAuthorized, err)
	}
	return caller, nil
}

func awaitPet(ctx context.Context, run client.WorkflowRun) (*domain.Pet, error) {
	var pet domain.Pet
	if err := run.Get(ctx, &pet); err != nil {
		return nil, translateWorkflowError(err)
	}
	return &pet, nil
}

// translateWorkflowError restores the application sentinels lost in workflow serialization.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case petactivities.ErrorTypeInvalidInput:
		return fmt.Errorf("%w: %s", petsapp.ErrInvalidInput, appErr.Error())
	case petactivities.ErrorTypeNotAuthorized:
		return fmt.Errorf("%w: %s", petsapp.ErrNotAuthorized, appErr.Error())
	default:
		return err
	}
}

// InlinePetWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlinePetWorkflows struct {
	service ports.Service
}

// NewInlinePetWorkflows wraps the registry service for synchronous execution.
func NewInlinePetWorkflows(service ports.Service) *InlinePetWorkflows {
	return &InlinePetWorkflows{service: service}
}

// RegisterPet delegates to the application service without durable orchestration.
func (o *InlinePetWorkflows) RegisterPet(ctx context.Context, input petstypes.RegisterPetInput) (*domain.Pet, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline pet workflows not configured")
	}
	return o.service.Register(ctx, input)
}

func buildPetRegistrationWorkflowID(caller, idempotencyKey, traceComponent string) string {
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		return fmt.Sprintf("pet-registration-idem-%s", hashIdempotencyKey(caller, key))
	}
	return fmt.Sprintf("pet-registration-%d-%s", time.Now().UnixNano(), traceComponent)
}

// hashIdempotencyKey scopes the key to the caller so two owners never share a run.
func hashIdempotencyKey(caller, key string) string {
	sum := sha256.Sum256([]byte(caller + "\x00" + key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
