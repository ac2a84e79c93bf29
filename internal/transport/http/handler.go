package http

import (
	"net/http"
	"strconv"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handler is the REST adapter over the session registry. Clients poll the
// status and results endpoints; there is no push channel.
type Handler struct {
	registry *app.Registry
}

func NewHandler(registry *app.Registry) *Handler {
	return &Handler{registry: registry}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the gin engine with all routes mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), gin.Logger())
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	admin := r.Group("/v1/admin")
	{
		admin.POST("/quiz/:quizid/session/start", h.startSession)
		admin.GET("/quiz/:quizid/sessions", h.listSessions)
		admin.PUT("/quiz/:quizid/session/:sessionid", h.updateSession)
		admin.GET("/quiz/:quizid/session/:sessionid", h.sessionStatus)
	}

	player := r.Group("/v1/player")
	{
		player.POST("/join", h.join)
		player.GET("/:playerid", h.playerStatus)
		player.PUT("/:playerid/question/:questionposition/answer", h.submitAnswer)
		player.GET("/:playerid/question/:questionposition/results", h.questionResults)
		player.GET("/:playerid/results", h.finalResults)
		player.GET("/:playerid/chat", h.listChat)
		player.POST("/:playerid/chat", h.postChat)
	}

	return r
}

type startSessionRequest struct {
	AutoStartNum int `json:"autoStartNum"`
}

func (h *Handler) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	sessionID, err := h.registry.StartSession(c.Request.Context(), token(c), c.Param("quizid"), req.AutoStartNum)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

func (h *Handler) listSessions(c *gin.Context) {
	lists, err := h.registry.ListSessions(token(c), c.Param("quizid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

type updateSessionRequest struct {
	Action string `json:"action"`
}

func (h *Handler) updateSession(c *gin.Context) {
	sessionID, ok := intParam(c, "sessionid")
	if !ok {
		return
	}
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	err := h.registry.AdminAction(token(c), c.Param("quizid"), sessionID, domain.AdminAction(req.Action))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) sessionStatus(c *gin.Context) {
	sessionID, ok := intParam(c, "sessionid")
	if !ok {
		return
	}
	status, err := h.registry.SessionStatus(token(c), c.Param("quizid"), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type joinRequest struct {
	SessionID int    `json:"sessionId"`
	Name      string `json:"name"`
}

func (h *Handler) join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	playerID, err := h.registry.Join(req.SessionID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"playerId": playerID})
}

func (h *Handler) playerStatus(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	status, err := h.registry.PlayerStatus(playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type submitAnswerRequest struct {
	AnswerIDs []int `json:"answerIds"`
}

func (h *Handler) submitAnswer(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(c, "questionposition")
	if !ok {
		return
	}
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.registry.SubmitAnswer(playerID, position, req.AnswerIDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) questionResults(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	position, ok := intParam(c, "questionposition")
	if !ok {
		return
	}
	results, err := h.registry.QuestionResults(playerID, position)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) finalResults(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	results, err := h.registry.FinalResults(playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) listChat(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	messages, err := h.registry.Messages(playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type postChatRequest struct {
	Message struct {
		MessageBody string `json:"messageBody"`
	} `json:"message"`
}

func (h *Handler) postChat(c *gin.Context) {
	playerID, ok := intParam(c, "playerid")
	if !ok {
		return
	}
	var req postChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.registry.PostMessage(playerID, req.Message.MessageBody); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func token(c *gin.Context) string {
	return c.GetHeader("token")
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: name + " must be a number"})
		return 0, false
	}
	return v, true
}

// writeError maps domain error kinds to status families. Everything that is
// not an auth or lookup failure is a 400.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch domain.KindOf(err) {
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}
