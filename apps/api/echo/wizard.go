package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parishdesk/parishdesk/core/wizard"
)

const contextWizardKey = "wizard"

type (
	wizardApi struct {
		deps     ServerDeps
		registry wizard.Registry
		viewport wizard.Viewport
	}

	StepView struct {
		wizard.Step
		Completed bool `json:"completed"`
		Current   bool `json:"current"`
	}

	WizardResponse struct {
		Wizard *wizard.State `json:"wizard"`
		Step   StepView      `json:"step"`
		Steps  []StepView    `json:"steps"`
		Toasts []Toast       `json:"toasts"`
		Error  string        `json:"error,omitempty"`
	}

	ReviewResponse struct {
		Wizard    *wizard.State          `json:"wizard"`
		Sections  []wizard.Section       `json:"sections"`
		Payload   map[string]interface{} `json:"payload"`
		Banner    wizard.Banner          `json:"banner"`
		CanSubmit bool                   `json:"can_submit"`
		Toasts    []Toast                `json:"toasts"`
	}
)

func registerMembersAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	viewport := deps.Viewport
	if viewport == nil {
		w := deps.Conf.Wizard
		viewport = wizard.NewStepStrip(w.StripWidth, w.ButtonWidth, w.ButtonGap)
	}
	api := &wizardApi{
		deps:     deps,
		registry: wizard.DefaultRegistry(),
		viewport: viewport,
	}

	mg := g.Group("/members", jwt, registrarMiddleware(deps.UserSvc))
	mg.GET("", api.listMembers)

	wg := mg.Group("/wizard")
	wg.POST("", api.create)

	dg := wg.Group("/:wid")
	dg.GET("", api.retrieve, api.wizardMiddleware)
	dg.GET("/review", api.review, api.wizardMiddleware)

	// mutations hold the wizard lock from load to save
	dg.DELETE("", api.destroy, api.lockMiddleware, api.wizardMiddleware)
	dg.POST("/steps/:step", api.submitStep, api.lockMiddleware, api.wizardMiddleware)
	dg.POST("/goto/:step", api.goToStep, api.lockMiddleware, api.wizardMiddleware)
	dg.POST("/back", api.back, api.lockMiddleware, api.wizardMiddleware)
	dg.POST("/skip", api.skip, api.lockMiddleware, api.wizardMiddleware)
	dg.POST("/submit", api.submit, api.lockMiddleware, api.wizardMiddleware)
}

// lockMiddleware holds the lock of the `:wid` wizard while the request runs.
// A wizard that is already held answers wizard.ErrSubmitInFlight.
func (api *wizardApi) lockMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		release, err := api.deps.WizardStore.Acquire(ctx.Request().Context(), ctx.Param("wid"))
		if err != nil {
			return errors.WithStack(err)
		}
		defer release()
		return next(ctx)
	}
}

// wizardMiddleware loads the wizard of the `:wid` path param. Wizards of other users are not found.
func (api *wizardApi) wizardMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		st, err := api.deps.WizardStore.Get(ctx.Request().Context(), ctx.Param("wid"))
		if err != nil {
			return errors.Wrap(err, "loading wizard")
		}
		if st.OwnerID != ctxUsr.ID {
			return errors.WithStack(wizard.ErrNotFound)
		}
		ctx.Set(contextWizardKey, st)
		return next(ctx)
	}
}

func contextWizard(ctx echo.Context) (*wizard.State, error) {
	if st, ok := ctx.Get(contextWizardKey).(*wizard.State); ok {
		return st, nil
	}
	return nil, errors.WithStack(wizard.ErrNotFound)
}

func (api *wizardApi) controller(ctx echo.Context, st *wizard.State) *wizard.Controller {
	return wizard.NewController(st, wizard.Deps{
		Registry:   api.registry,
		Notifier:   contextToasts(ctx),
		Viewport:   api.viewport,
		Validate:   api.deps.Validate,
		Translator: api.deps.Translator,
		Logger:     api.deps.Logger,
	})
}

func (api *wizardApi) stepViews(st *wizard.State) []StepView {
	steps := api.registry.Steps()
	views := make([]StepView, 0, len(steps))
	for _, step := range steps {
		views = append(views, StepView{
			Step:      step,
			Completed: st.CompletedStepIDs.Has(step.ID),
			Current:   step.ID == st.CurrentStepID,
		})
	}
	return views
}

func (api *wizardApi) render(ctx echo.Context, code int, st *wizard.State, errMsg string) error {
	steps := api.stepViews(st)
	return ctx.JSON(code, WizardResponse{
		Wizard: st,
		Step:   steps[st.CurrentStepID-1],
		Steps:  steps,
		Toasts: contextToasts(ctx).Drain(),
		Error:  errMsg,
	})
}

func (api *wizardApi) save(ctx echo.Context, st *wizard.State) error {
	if err := api.deps.WizardStore.Save(ctx.Request().Context(), st); err != nil {
		return errors.Wrap(err, "saving wizard")
	}
	return nil
}

// Handlers

func (api *wizardApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	st := wizard.NewState(ctxUsr.ID)
	st.ScrollOffset = api.viewport.BringIntoView(st.CurrentStepID)
	if err = api.save(ctx, st); err != nil {
		return err
	}
	return api.render(ctx, http.StatusCreated, st, "")
}

func (api *wizardApi) retrieve(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	return api.render(ctx, http.StatusOK, st, "")
}

func (api *wizardApi) destroy(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	if err = api.deps.WizardStore.Delete(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting wizard")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submitStep validates the posted form of step `:step`. The form starts from the stored step data,
// so omitted fields keep their value.
func (api *wizardApi) submitStep(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	id, err := stepParam(ctx)
	if err != nil {
		return err
	}

	ctrl := api.controller(ctx, st)
	step := api.registry.Resolve(id)
	if form, ok := step.NewForm(st); ok {
		if err = ctx.Bind(form); err != nil {
			return errors.Wrap(err, "binding step form")
		}
		err = ctrl.SubmitForm(id, form)
	} else {
		err = ctrl.SubmitStep(id, nil)
	}
	if err != nil {
		return err
	}

	if err = api.save(ctx, st); err != nil {
		return err
	}
	return api.render(ctx, http.StatusOK, st, "")
}

func (api *wizardApi) goToStep(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	id, err := stepParam(ctx)
	if err != nil {
		return err
	}

	if err = api.controller(ctx, st).GoToStep(id); err != nil {
		if errors.Cause(err) == wizard.ErrNavigationDenied {
			return api.render(ctx, http.StatusConflict, st, err.Error())
		}
		return err
	}
	if err = api.save(ctx, st); err != nil {
		return err
	}
	return api.render(ctx, http.StatusOK, st, "")
}

func (api *wizardApi) back(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	api.controller(ctx, st).GoBack()
	if err = api.save(ctx, st); err != nil {
		return err
	}
	return api.render(ctx, http.StatusOK, st, "")
}

func (api *wizardApi) skip(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	api.controller(ctx, st).Skip()
	if err = api.save(ctx, st); err != nil {
		return err
	}
	return api.render(ctx, http.StatusOK, st, "")
}

func (api *wizardApi) review(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ReviewResponse{
		Wizard:    st,
		Sections:  wizard.Sections(st),
		Payload:   wizard.MapToAPIFormat(st),
		Banner:    st.Banner,
		CanSubmit: st.CanSubmit(),
		Toasts:    contextToasts(ctx).Drain(),
	})
}

var outcomeCodes = map[wizard.Outcome]int{
	wizard.OutcomeCreated:  http.StatusCreated,
	wizard.OutcomeRejected: http.StatusUnprocessableEntity,
	wizard.OutcomeFailed:   http.StatusBadGateway,
}

// submit creates the member on the members backend with the caller's bearer token.
func (api *wizardApi) submit(ctx echo.Context) error {
	st, err := contextWizard(ctx)
	if err != nil {
		return err
	}
	token, err := getContextToken(ctx)
	if err != nil {
		return err
	}

	// lockMiddleware already holds the wizard
	reviewer := wizard.NewReviewer(api.deps.Members, nil, contextToasts(ctx), api.deps.Logger)
	outcome, err := reviewer.Submit(ctx.Request().Context(), st, token)
	switch errors.Cause(err) {
	case nil:
	case wizard.ErrCannotSubmit:
		return api.render(ctx, http.StatusConflict, st, err.Error())
	default:
		return errors.Wrap(err, "submitting wizard")
	}

	if err = api.save(ctx, st); err != nil {
		return err
	}
	return api.render(ctx, outcomeCodes[outcome], st, "")
}

// listMembers forwards the query to the members backend and relays its response as is.
func (api *wizardApi) listMembers(ctx echo.Context) error {
	token, err := getContextToken(ctx)
	if err != nil {
		return err
	}

	status, body, err := api.deps.Members.ListMembers(ctx.Request().Context(), token, ctx.QueryParams())
	if err != nil {
		api.deps.Logger.Error(fmt.Sprintf("listing members: %v", err), err)
		return &echo.HTTPError{Code: http.StatusBadGateway, Message: "members backend unavailable", Internal: err}
	}
	return ctx.JSONBlob(status, body)
}
