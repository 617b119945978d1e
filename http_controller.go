package hireqa

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/nyaruka/phonenumbers"
)

const sessionLocalKey = "hireqa_session"

// GetSession pulls the validated session the bearer middleware stored on
// the request.
func GetSession(c *fiber.Ctx) (Session, error) {
	value := c.Locals(sessionLocalKey)
	if value == nil {
		return nil, ErrUnauthenticated
	}

	session, ok := value.(Session)
	if !ok || session == nil {
		return nil, ErrUnauthenticated
	}

	return session, nil
}

type AuthControllerRoutes struct {
	Signup             string
	Login              string
	VerifyEmail        string
	ResendVerification string
	PasswordStrength   string
	Me                 string
	Health             string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
	Mailer EmailDispatcher
	Clock  Clock
	Sink   ActivitySink
	Routes *AuthControllerRoutes

	signup *SignupHandler
	verify *VerifyEmailHandler
	resend *ResendVerificationHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerMailer(mailer EmailDispatcher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerClock(clock Clock) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Clock = clock
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sink = sink
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Clock:  SystemClock,
		Sink:   noopActivitySink{},
		Routes: &AuthControllerRoutes{
			Signup:             "/signup/jobseeker",
			Login:              "/login",
			VerifyEmail:        "/verify-email",
			ResendVerification: "/resend-verification",
			PasswordStrength:   "/password-strength-check",
			Me:                 "/me",
			Health:             "/healthz",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = EmailDispatcherFunc(nil)
	}

	c.signup = NewSignupHandler(c.Repo, c.Mailer).
		WithClock(c.Clock).
		WithActivitySink(c.Sink).
		WithLogger(c.Logger)
	c.verify = NewVerifyEmailHandler(c.Repo).
		WithClock(c.Clock).
		WithActivitySink(c.Sink).
		WithLogger(c.Logger)
	c.resend = NewResendVerificationHandler(c.Repo, c.Mailer).
		WithClock(c.Clock).
		WithActivitySink(c.Sink).
		WithLogger(c.Logger)

	return c
}

// RegisterRoutes mounts the account API under the given router group.
func (a *AuthController) RegisterRoutes(app fiber.Router) {
	app.Post(a.Routes.Signup, a.SignupJobseeker)
	app.Post(a.Routes.Login, a.Login)
	app.Get(a.Routes.VerifyEmail, a.VerifyEmail)
	app.Post(a.Routes.ResendVerification, a.ResendVerification)
	app.Post(a.Routes.PasswordStrength, a.PasswordStrengthCheck)
	app.Get(a.Routes.Me, a.ProtectedRoute(), a.Me)
	app.Get(a.Routes.Health, a.Health)
}

// SignupRequest is the multipart jobseeker registration payload. Field
// names follow the public form.
type SignupRequest struct {
	FirstName     string `form:"first_name" json:"first_name"`
	MiddleName    string `form:"middle_name" json:"middle_name"`
	LastName      string `form:"last_name" json:"last_name"`
	Username      string `form:"username" json:"username"`
	Email         string `form:"email_id" json:"email_id"`
	Phone         string `form:"phone_number" json:"phone_number"`
	Location      string `form:"location" json:"location"`
	DateOfBirth   string `form:"dob" json:"dob"`
	Gender        string `form:"gender" json:"gender"`
	Password      string `form:"password" json:"password"`
	AcceptedTerms bool   `form:"accepted_terms_policy" json:"accepted_terms_policy"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.FirstName,
			validation.Required,
			validation.Length(1, 100),
		),
		validation.Field(
			&r.LastName,
			validation.Required,
			validation.Length(1, 100),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Phone,
			validation.By(validPhoneNumber),
		),
		validation.Field(
			&r.DateOfBirth,
			validation.Required,
			validation.Date("2006-01-02"),
		),
		validation.Field(
			&r.Gender,
			validation.In(GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay),
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
		validation.Field(
			&r.AcceptedTerms,
			validation.Required,
		),
	)
}

func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	parsed, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return fmt.Errorf("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return fmt.Errorf("must be a valid phone number")
	}
	return nil
}

func (a *AuthController) SignupJobseeker(c *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse signup form").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "validation_error",
			"message":    err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= SIGNUP =======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("======================")
	}

	// resume is accepted but only logged for now
	if file, err := c.FormFile("resume_uploaded"); err == nil && file != nil {
		a.Logger.Info("resume received: %s (%d bytes)", file.Filename, file.Size)
	}

	var response *SignupResponse
	msg := SignupMessage{
		FirstName:     payload.FirstName,
		MiddleName:    payload.MiddleName,
		LastName:      payload.LastName,
		Username:      payload.Username,
		Email:         payload.Email,
		Phone:         payload.Phone,
		RoleType:      RoleJobseeker,
		Location:      payload.Location,
		DateOfBirth:   payload.DateOfBirth,
		Gender:        payload.Gender,
		Password:      payload.Password,
		AcceptedTerms: payload.AcceptedTerms,
		OnResponse:    func(r *SignupResponse) { response = r },
	}

	if err := a.signup.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	body := fiber.Map{
		"status":  "success",
		"message": "Account created. Please verify your email to activate your account.",
	}
	if response != nil {
		body["account_id"] = response.AccountID
		body["email_sent"] = response.EmailSent
		if response.EmailDetail != "" {
			body["email_message"] = response.EmailDetail
		}
	}

	return c.JSON(body)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email_id" json:"email_id"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse login payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		// a malformed login still reads as a credential failure so the
		// response shape never hints at which field was wrong
		return a.renderError(c, ErrInvalidCredentials)
	}

	token, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")

	var response *VerifyEmailResponse
	msg := VerifyEmailMessage{
		Token:      token,
		OnResponse: func(r *VerifyEmailResponse) { response = r },
	}

	if err := a.verify.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	message := "Email verified successfully. You can now log in."
	if response != nil && response.AlreadyVerified {
		message = "Email is already verified. You can log in."
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": message,
	})
}

// ResendVerificationRequest payload
type ResendVerificationRequest struct {
	Email string `form:"email_id" json:"email_id"`
}

// Validate will run validation rules
func (r ResendVerificationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) ResendVerification(c *fiber.Ctx) error {
	payload := new(ResendVerificationRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse resend payload").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "validation_error",
			"message":    err.Error(),
		})
	}

	var response *ResendVerificationResponse
	msg := ResendVerificationMessage{
		Email:      payload.Email,
		OnResponse: func(r *ResendVerificationResponse) { response = r },
	}

	if err := a.resend.Execute(c.UserContext(), msg); err != nil {
		return a.renderError(c, err)
	}

	body := fiber.Map{
		"status":  "success",
		"message": "Verification email sent. Please check your inbox.",
	}
	if response != nil {
		body["email_sent"] = response.EmailSent
		if response.EmailDetail != "" {
			body["email_message"] = response.EmailDetail
		}
	}

	return c.JSON(body)
}

// PasswordStrengthRequest payload
type PasswordStrengthRequest struct {
	Password string `form:"password" json:"password"`
}

func (a *AuthController) PasswordStrengthCheck(c *fiber.Ctx) error {
	payload := new(PasswordStrengthRequest)

	if err := c.BodyParser(payload); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload").
			WithCode(goerrors.CodeBadRequest))
	}

	report := CheckPasswordStrength(payload.Password)

	return c.JSON(fiber.Map{
		"score":              report.Score,
		"suggestions":        report.Suggestions,
		"crack_time_display": report.CrackTimeDisplay,
	})
}

func (a *AuthController) Me(c *fiber.Ctx) error {
	session, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	account, err := a.Repo.Accounts().GetByEmail(c.UserContext(), session.GetUserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return a.renderError(c, ErrUnauthenticated)
		}
		return a.renderError(c, NewPersistenceError(err, "failed to load profile"))
	}

	return c.JSON(account)
}

func (a *AuthController) Health(c *fiber.Ctx) error {
	if err := a.Repo.Validate(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// ProtectedRoute validates the bearer token and stores the session on the
// request for downstream handlers.
func (a *AuthController) ProtectedRoute() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return a.renderError(c, ErrUnauthenticated)
		}

		session, err := a.Auther.SessionFromToken(token)
		if err != nil {
			return a.renderError(c, err)
		}

		c.Locals(sessionLocalKey, session)
		return c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// renderError maps rich errors onto the wire contract: HTTP status from the
// error code, error_code from the text code, metadata flattened into the
// body for field-level feedback.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unhandled error type: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_code": TextCodePersistence,
			"message":    "internal server error",
		})
	}

	status := int(richErr.Code)
	if status < fiber.StatusBadRequest || status > 599 {
		status = statusFromCategory(richErr.Category)
	}

	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("request failed: %v", richErr)
	}

	body := fiber.Map{
		"error_code": richErr.TextCode,
		"message":    richErr.Message,
	}
	for key, value := range richErr.Metadata {
		body[key] = value
	}

	return c.Status(status).JSON(body)
}

func statusFromCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
