package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/growmate/growmate/internal/session"
)

func TestChatAppendsBothSides(t *testing.T) {
	chats := session.NewMemoryChatStore()
	adv := &stubAdvice{reply: "Rotate your crops each season."}
	h := NewChatHandler(adv, chats, zap.NewNop().Sugar())

	identity := map[string]any{"user_id": "u1", "email": "a@x.com"}
	rec := callJSON(t, h.Chat, `{"message":"how do I keep soil healthy?"}`, identity)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "how do I keep soil healthy?", adv.got)

	msgs, err := chats.History(t.Context(), "a@x.com")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "You", msgs[0].Speaker)
	assert.Equal(t, "how do I keep soil healthy?", msgs[0].Text)
	assert.Equal(t, "Bot", msgs[1].Speaker)
	assert.Contains(t, msgs[1].Text, "Rotate your crops each season.")
}

func TestChatRequiresMessage(t *testing.T) {
	h := NewChatHandler(&stubAdvice{}, session.NewMemoryChatStore(), zap.NewNop().Sugar())

	rec := callJSON(t, h.Chat, `{"message":"   "}`, map[string]any{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHistoryEndpoint(t *testing.T) {
	chats := session.NewMemoryChatStore()
	require.NoError(t, chats.Append(t.Context(), "a@x.com", session.Message{Speaker: "You", Text: "hello"}))
	require.NoError(t, chats.Append(t.Context(), "a@x.com", session.Message{Speaker: "Bot", Text: "hi!"}))
	h := NewChatHandler(&stubAdvice{}, chats, zap.NewNop().Sugar())

	rec := callJSON(t, h.History, ``, map[string]any{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chat_history"`)
	assert.Contains(t, rec.Body.String(), "hello")
	assert.Contains(t, rec.Body.String(), "hi!")
}

func TestFarmRecommendation(t *testing.T) {
	adv := &stubAdvice{reply: "Plant millet on the drier half."}
	h := NewFarmHandler(adv)

	rec := callJSON(t, h.Recommend, `{"area":"5","water_content":"low","location":"Nashik"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plant millet on the drier half.")

	// The prompt carries all three form fields and the bot persona.
	assert.Contains(t, adv.got, "5 in acre")
	assert.Contains(t, adv.got, "low water moisture level")
	assert.Contains(t, adv.got, "located in Nashik")
	assert.Contains(t, adv.got, "Growmate")
}

func TestFarmRecommendationValidation(t *testing.T) {
	h := NewFarmHandler(&stubAdvice{})

	rec := callJSON(t, h.Recommend, `{"area":"5"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderMarkdown(t *testing.T) {
	html := renderMarkdown("**bold** advice")
	assert.Contains(t, html, "<strong>bold</strong>")
}
