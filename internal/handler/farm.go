package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// FarmHandler serves farm-management recommendations: a single prompt built
// from the form fields, answered by the advice client.
type FarmHandler struct {
	Advice AdviceGenerator
}

func NewFarmHandler(adv AdviceGenerator) *FarmHandler {
	return &FarmHandler{Advice: adv}
}

type farmReq struct {
	Area         string `json:"area"`
	WaterContent string `json:"water_content"`
	Location     string `json:"location"`
}

// Recommend builds the recommendation prompt and returns the generated text
// both raw and rendered. The advice client never fails, so neither does this
// handler once the input validates.
func (h *FarmHandler) Recommend(c echo.Context) error {
	var req farmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Area) == "" || strings.TrimSpace(req.WaterContent) == "" || strings.TrimSpace(req.Location) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "area/water_content/location required"})
	}

	recommendation := h.Advice.Generate(c.Request().Context(), farmPrompt(req.Area, req.WaterContent, req.Location))

	return c.JSON(http.StatusOK, echo.Map{
		"recommendation":      recommendation,
		"recommendation_html": renderMarkdown(recommendation),
	})
}

// farmPrompt keeps the wording the service has always sent, including the
// bot persona.
func farmPrompt(area, waterContent, location string) string {
	return fmt.Sprintf(
		"Provide farm management recommendations for an area of %s in acre, "+
			"with %s water moisture level, located in %s. "+
			"Include crop suggestions and basic care instructions."+
			"And Also provide important points and Method of division of crops"+
			"Always reply like your a Bot Called Growmate",
		area, waterContent, location)
}
