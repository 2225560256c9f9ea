package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	llm "github.com/okian/sentiscan/internal/adapters/llm"
	"github.com/okian/sentiscan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOpenAI(t *testing.T) {
	Convey("Given an OpenAI-compatible endpoint", t, func() {
		var got map[string]any
		var auth string
		reply := `{"choices":[{"message":{"role":"assistant","content":"  Users love the speed.  "}}]}`
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(reply))
		}))
		defer srv.Close()

		c, err := llm.New(llm.ProviderOpenAI, llm.WithAPIKey("sk-test"), llm.WithBaseURL(srv.URL), llm.WithRequestsPerMinute(0))
		So(err, ShouldBeNil)

		Convey("When completing a prompt", func() {
			out, err := c.Complete(context.Background(), llm.Prompt{User: "reviews...", Temperature: 0.7})
			So(err, ShouldBeNil)

			Convey("Then the trimmed text is returned", func() {
				So(out, ShouldEqual, "Users love the speed.")
			})

			Convey("Then defaults fill the request", func() {
				So(auth, ShouldEqual, "Bearer sk-test")
				So(got["model"], ShouldEqual, "gpt-3.5-turbo")
				So(got["max_tokens"], ShouldEqual, float64(llm.DefaultMaxTokens))
				msgs := got["messages"].([]any)
				So(msgs[0].(map[string]any)["content"], ShouldEqual, llm.DefaultSystemPrompt)
			})
		})

		Convey("When the model answers with whitespace", func() {
			reply = `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`
			_, err := c.Complete(context.Background(), llm.Prompt{User: "x"})
			So(errors.Is(err, llm.ErrEmptyResponse), ShouldBeTrue)
		})

		Convey("When the API reports an error", func() {
			reply = `{"error":{"type":"invalid_request_error","message":"bad"}}`
			_, err := c.Complete(context.Background(), llm.Prompt{User: "x"})
			So(errors.Is(err, llm.ErrAPI), ShouldBeTrue)
		})
	})
}

func TestAnthropic(t *testing.T) {
	Convey("Given an Anthropic messages endpoint", t, func() {
		var got map[string]any
		var key, version string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, version = r.Header.Get("x-api-key"), r.Header.Get("anthropic-version")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Battery "},{"type":"text","text":"complaints dominate."}]}`))
		}))
		defer srv.Close()

		c, err := llm.New(llm.ProviderAnthropic, llm.WithAPIKey("ak"), llm.WithBaseURL(srv.URL), llm.WithModel("claude-test"))
		So(err, ShouldBeNil)

		out, err := c.Complete(context.Background(), llm.Prompt{System: "sys", User: "u", MaxTokens: 10})
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "Battery complaints dominate.")
		So(key, ShouldEqual, "ak")
		So(version, ShouldNotBeEmpty)
		So(got["system"], ShouldEqual, "sys")
		So(got["model"], ShouldEqual, "claude-test")
	})
}

func TestNew(t *testing.T) {
	Convey("Given bad provider settings", t, func() {
		_, err := llm.New("bard", llm.WithAPIKey("k"))
		So(errors.Is(err, llm.ErrUnknownProvider), ShouldBeTrue)
		_, err = llm.New(llm.ProviderOpenAI)
		So(errors.Is(err, llm.ErrMissingAPIKey), ShouldBeTrue)
	})
}

func TestTimeout(t *testing.T) {
	Convey("Given a shared HTTP client and a slow endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
		}))
		defer srv.Close()
		shared := &http.Client{}

		c, err := llm.New(llm.ProviderOpenAI,
			llm.WithAPIKey("sk-test"),
			llm.WithBaseURL(srv.URL),
			llm.WithHTTPClient(shared),
			llm.WithTimeout(50*time.Millisecond),
			llm.WithRequestsPerMinute(0))
		So(err, ShouldBeNil)

		Convey("Then the timeout applies to requests", func() {
			_, err := c.Complete(context.Background(), llm.Prompt{User: "x"})
			So(err, ShouldNotBeNil)
		})

		Convey("Then the shared client is left untouched", func() {
			So(shared.Timeout, ShouldEqual, time.Duration(0))
		})
	})
}

type countingClient struct{ calls int }

func (c *countingClient) Complete(context.Context, llm.Prompt) (string, error) {
	c.calls++
	return "ok", nil
}

func TestInstrument(t *testing.T) {
	Convey("Given a rate limited client", t, func() {
		inner := &countingClient{}
		c := llm.Instrument(inner, "fake", 1, logger.Nop())

		Convey("Then the first call passes immediately", func() {
			_, err := c.Complete(context.Background(), llm.Prompt{User: "a"})
			So(err, ShouldBeNil)

			Convey("And a second call gives up when the caller does", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()
				_, err := c.Complete(ctx, llm.Prompt{User: "b"})
				So(errors.Is(err, llm.ErrRateLimited), ShouldBeTrue)
				So(inner.calls, ShouldEqual, 1)
			})
		})
	})
}
