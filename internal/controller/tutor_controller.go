package controller

import (
	"errors"

	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/service"
	"adaptive_tutor/internal/util"

	"github.com/gin-gonic/gin"
)

type TutorController struct {
	TutorService *service.TutorService
	Config       TutorLimits
}

// TutorLimits 查询参数的默认值和上限
type TutorLimits struct {
	SuggestionLimit    int
	SuggestionMaxLimit int
	HistoryLimit       int
	HistoryMaxLimit    int
}

func NewTutorController(tutorService *service.TutorService, limits TutorLimits) *TutorController {
	return &TutorController{TutorService: tutorService, Config: limits}
}

// answerBody 作答请求体，ID 用指针区分缺失和零值
type answerBody struct {
	StudentID      *uint    `json:"student_id"`
	ExerciseID     *uint    `json:"exercise_id"`
	OptionID       *uint    `json:"option_id"`
	ElapsedSeconds *float64 `json:"elapsed_seconds"`
	UsedHint       bool     `json:"used_hint"`
}

func (c *TutorController) handleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidArgument), errors.Is(err, util.ErrOptionMismatch):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrStudentNotFound),
		errors.Is(err, util.ErrCompetencyNotFound),
		errors.Is(err, util.ErrExerciseNotFound),
		errors.Is(err, util.ErrOptionNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, util.ErrAmbiguousCorrectOption), errors.Is(err, util.ErrStudentBusy):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// authorizeStudent 启用认证时学生只能访问自己的数据，教师不受限
func authorizeStudent(ctx *gin.Context, studentID uint) error {
	claims := util.GetClaimsFromContext(ctx)
	if claims == nil || claims.Role == util.RoleTeacher || claims.StudentID == studentID {
		return nil
	}
	return util.ErrPermissionDenied
}

func (c *TutorController) studentID(ctx *gin.Context, raw string) (uint, bool) {
	id, err := util.ParseID("student_id", raw)
	if err != nil {
		c.handleError(ctx, err)
		return 0, false
	}
	if err := authorizeStudent(ctx, id); err != nil {
		c.handleError(ctx, err)
		return 0, false
	}
	return id, true
}

// @Summary 获取下一道练习
// @Description 按新颖性、防重复、封禁和难度信号选题；没有可选练习时返回 exhausted=true
// @Tags 自适应辅导
// @Produce json
// @Security ApiKeyAuth
// @Param student_id query int true "学生ID"
// @Param competency_id query int false "能力ID"
// @Param steering query string false "难度信号" Enums(easier, same, harder)
// @Param lang query string false "消息语言" Enums(es, en)
// @Success 200 {object} util.Response{data=service.NextExerciseResponse}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tutor/next-exercise [get]
func (c *TutorController) NextExercise(ctx *gin.Context) {
	studentID, ok := c.studentID(ctx, ctx.Query("student_id"))
	if !ok {
		return
	}
	competencyID, err := util.ParseOptionalID("competency_id", ctx.Query("competency_id"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	steering := model.SteerSame
	if raw := ctx.Query("steering"); raw != "" {
		var valid bool
		if steering, valid = model.ParseSteering(raw); !valid {
			util.BadRequest(ctx, "steering must be one of easier, same, harder")
			return
		}
	}

	resp, err := c.TutorService.NextExercise(ctx.Request.Context(), studentID, competencyID, steering)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 提交作答
// @Description 记录作答，更新能力分数、掌握度和学生进度，并返回下一步难度信号
// @Tags 自适应辅导
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param answer body service.AnswerRequest true "作答"
// @Success 200 {object} util.Response{data=service.AnswerResponse}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /tutor/answer [post]
func (c *TutorController) SubmitAnswer(ctx *gin.Context) {
	var body answerBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.BadRequest(ctx, "invalid request body")
		return
	}
	for _, f := range []struct {
		name string
		v    *uint
	}{{"student_id", body.StudentID}, {"exercise_id", body.ExerciseID}, {"option_id", body.OptionID}} {
		if f.v == nil || *f.v == 0 {
			util.BadRequest(ctx, f.name+" is required")
			return
		}
	}
	if body.ElapsedSeconds != nil && *body.ElapsedSeconds < 0 {
		util.BadRequest(ctx, "elapsed_seconds must not be negative")
		return
	}
	if err := authorizeStudent(ctx, *body.StudentID); err != nil {
		c.handleError(ctx, err)
		return
	}

	resp, err := c.TutorService.SubmitAnswer(ctx.Request.Context(), service.AnswerRequest{
		StudentID:      *body.StudentID,
		ExerciseID:     *body.ExerciseID,
		OptionID:       *body.OptionID,
		ElapsedSeconds: body.ElapsedSeconds,
		UsedHint:       body.UsedHint,
	})
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 查询能力掌握度
// @Tags 自适应辅导
// @Produce json
// @Security ApiKeyAuth
// @Param student_id query int true "学生ID"
// @Param competency_id query int true "能力ID"
// @Success 200 {object} util.Response{data=service.MasteryEstimate}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tutor/mastery [get]
func (c *TutorController) Mastery(ctx *gin.Context) {
	studentID, ok := c.studentID(ctx, ctx.Query("student_id"))
	if !ok {
		return
	}
	competencyID, err := util.ParseID("competency_id", ctx.Query("competency_id"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	est, err := c.TutorService.MasteryLevel(ctx.Request.Context(), studentID, competencyID)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, est)
}

// @Summary 推荐练习
// @Description 按估计掌握度所在难度区间随机推荐练习
// @Tags 自适应辅导
// @Produce json
// @Security ApiKeyAuth
// @Param student_id query int true "学生ID"
// @Param competency_id query int true "能力ID"
// @Param limit query int false "数量 (默认5)"
// @Success 200 {object} util.Response{data=service.SuggestionsResponse}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tutor/suggestions [get]
func (c *TutorController) Suggestions(ctx *gin.Context) {
	studentID, ok := c.studentID(ctx, ctx.Query("student_id"))
	if !ok {
		return
	}
	competencyID, err := util.ParseID("competency_id", ctx.Query("competency_id"))
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	limit, err := util.ParseLimit(ctx.Query("limit"), c.Config.SuggestionLimit, c.Config.SuggestionMaxLimit)
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	resp, err := c.TutorService.Suggestions(ctx.Request.Context(), studentID, competencyID, limit)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 学习进度概览
// @Tags 自适应辅导
// @Produce json
// @Security ApiKeyAuth
// @Param student_id query int true "学生ID"
// @Success 200 {object} util.Response{data=service.ProgressResponse}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tutor/progress [get]
func (c *TutorController) Progress(ctx *gin.Context) {
	studentID, ok := c.studentID(ctx, ctx.Query("student_id"))
	if !ok {
		return
	}

	resp, err := c.TutorService.ProgressSummary(ctx.Request.Context(), studentID)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 最近作答记录
// @Tags 自适应辅导
// @Produce json
// @Security ApiKeyAuth
// @Param student_id query int true "学生ID"
// @Param limit query int false "数量 (默认3)"
// @Success 200 {object} util.Response{data=[]service.HistoryItem}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /tutor/history [get]
func (c *TutorController) History(ctx *gin.Context) {
	studentID, ok := c.studentID(ctx, ctx.Query("student_id"))
	if !ok {
		return
	}
	limit, err := util.ParseLimit(ctx.Query("limit"), c.Config.HistoryLimit, c.Config.HistoryMaxLimit)
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	items, err := c.TutorService.History(ctx.Request.Context(), studentID, limit)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "no-store")
	util.Success(ctx, items)
}
