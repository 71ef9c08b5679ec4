package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type WorkflowExecutor interface {
	Execute(ctx context.Context, input usecase.WorkflowInput) (*usecase.WorkflowOutput, error)
}

type WorkflowHandler struct {
	workflow WorkflowExecutor
}

func NewWorkflowHandler(workflow WorkflowExecutor) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

func (h *WorkflowHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.WorkflowInput
	if err := decodeValid(r, workflowSchema, &input); err != nil {
		writeInvalidBody(w, err)
		return
	}

	out, err := h.workflow.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for _, res := range out.Results {
		middleware.RecordWorkflowResult(input.Action, res.Status)
	}
	writeJSON(w, http.StatusOK, out)
}
