package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/battle"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/client"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/lifecycle"
)

// Messages produced by the async commands below.

type battleStartedMsg struct {
	state  battle.State
	doc    *lifecycle.DocHandle
	stream *client.StreamSession
}

type streamEventMsg struct {
	src *client.StreamSession // session the event was read from
	ev  battle.Event
	ok  bool // false once the stream channel is closed
}

type votedMsg struct {
	resp *client.VoteResponse
}

type leaderboardMsg struct {
	entries []client.LeaderboardEntry
}

type errMsg struct {
	err error
}

// startBattleCmd picks a document (the local file if one was given,
// otherwise a random sample from the backend), spills it to a local handle,
// starts a battle over it and opens the event stream.
func startBattleCmd(httpc *client.HTTPClient, localDoc string) tea.Cmd {
	return func() tea.Msg {
		var name string
		var data []byte

		if localDoc != "" {
			b, err := os.ReadFile(localDoc)
			if err != nil {
				return errMsg{fmt.Errorf("read document: %w", err)}
			}
			name, data = filepath.Base(localDoc), b
		} else {
			doc, err := httpc.RandomDocument()
			if err != nil {
				return errMsg{fmt.Errorf("fetch random document: %w", err)}
			}
			name, data = doc.Name, doc.Data
		}

		handle, err := lifecycle.NewDocHandle(name, data)
		if err != nil {
			return errMsg{err}
		}

		start, err := httpc.StartBattleUpload(name, data)
		if err != nil {
			handle.Release()
			return errMsg{fmt.Errorf("start battle: %w", err)}
		}

		stream, err := client.OpenStream(context.Background(), httpc.BaseURL(), start.BattleID)
		if err != nil {
			handle.Release()
			return errMsg{err}
		}

		return battleStartedMsg{
			state:  battle.NewState(start.BattleID, name),
			doc:    handle,
			stream: stream,
		}
	}
}

// waitForEvent delivers the next stream event as a message. The returned
// command is re-issued after every streamEventMsg until ok is false.
func waitForEvent(s *client.StreamSession) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-s.Events()
		return streamEventMsg{src: s, ev: ev, ok: ok}
	}
}

func voteCmd(httpc *client.HTTPClient, battleID string, winner battle.Winner) tea.Cmd {
	return func() tea.Msg {
		resp, err := httpc.Vote(battleID, winner)
		if err != nil {
			return errMsg{fmt.Errorf("vote: %w", err)}
		}
		return votedMsg{resp: resp}
	}
}

func leaderboardCmd(httpc *client.HTTPClient) tea.Cmd {
	return func() tea.Msg {
		entries, err := httpc.Leaderboard()
		if err != nil {
			return errMsg{fmt.Errorf("leaderboard: %w", err)}
		}
		return leaderboardMsg{entries: entries}
	}
}

// outcomeFromResponse translates the backend's vote reveal into the
// reducer's outcome record.
func outcomeFromResponse(resp *client.VoteResponse) battle.VoteOutcome {
	return battle.VoteOutcome{
		BattleID: resp.BattleID,
		Winner:   battle.Winner(resp.Winner),
		ModelA: battle.ModelIdentity{
			Name:     resp.ModelA.DisplayName,
			Provider: resp.ModelA.Provider,
			Elo:      resp.ModelA.Elo,
		},
		ModelB: battle.ModelIdentity{
			Name:     resp.ModelB.DisplayName,
			Provider: resp.ModelB.Provider,
			Elo:      resp.ModelB.Elo,
		},
		EloChangeA: resp.ModelAEloChange,
		EloChangeB: resp.ModelBEloChange,
	}
}
