package slack_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	slackgo "github.com/slack-go/slack"

	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/infra/slack"
)

func testResult() *model.PrepareResult {
	return &model.PrepareResult{
		RunID: "run-1",
		Downloads: []model.DownloadSummary{
			{Category: model.CategoryImages, Fetched: []string{"a", "b"}, Skipped: []string{"c"}},
			{Category: model.CategoryNodules, Failed: []model.FetchFailure{{Name: "n"}}},
		},
		Extracted: []model.ExtractSummary{
			{Category: model.CategoryImages, Parts: []string{"a", "b", "c"}, Directory: "data/images"},
		},
	}
}

func TestBuildMessage(t *testing.T) {
	msg := slack.BuildMessage(testResult(), nil)
	gt.String(t, msg.Text).Contains("run-1")
	gt.A(t, msg.Attachments).Length(1)

	att := msg.Attachments[0]
	gt.Equal(t, att.Color, "warning")
	gt.String(t, att.Title).Contains("1 failed downloads")
	gt.A(t, att.Fields).Length(3)
	gt.Equal(t, att.Fields[0].Value, "2 fetched, 1 skipped, 0 failed")
	gt.Equal(t, att.Fields[2].Value, "3 parts into data/images")
}

func TestBuildMessage_Failed(t *testing.T) {
	msg := slack.BuildMessage(nil, errors.New("structure mismatch"))
	att := msg.Attachments[0]
	gt.Equal(t, att.Color, "danger")
	gt.Equal(t, att.Text, "structure mismatch")
	gt.Equal(t, msg.Text, "luna25 run finished")
}

func TestNotifier(t *testing.T) {
	var got slackgo.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := slack.NewNotifier(srv.URL)
	gt.NoError(t, n.Notify(context.Background(), testResult(), nil))
	gt.String(t, got.Text).Contains("run-1")
	gt.A(t, got.Attachments).Length(1)
}

func TestNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := slack.NewNotifier(srv.URL).Notify(context.Background(), testResult(), nil)
	gt.Error(t, err).Contains("Slack notification")
}
