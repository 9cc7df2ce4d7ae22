package assistant

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Session files can hold long transcripts; detail reads are capped so a
// runaway session cannot blow up a response.
const maxSessionTurns = 500

// Scanner buffer large enough for single-line JSON records carrying
// whole file contents.
const maxSessionLine = 4 * 1024 * 1024

// Session summarizes one recorded .jsonl transcript under
// projects/<key>/.
type Session struct {
	ID            string `json:"id"`
	ProjectKey    string `json:"project_key"`
	Cwd           string `json:"cwd,omitempty"`
	MessageCount  int    `json:"message_count"`
	LastMessageAt string `json:"last_message_at,omitempty"`
}

// Message is one extracted text message from a transcript.
type Message struct {
	UUID      string `json:"uuid"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ToolCall is one tool invocation recorded inside an assistant turn.
type ToolCall struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Input  string  `json:"input"`
	Output *string `json:"output"`
}

// Turn is one user or assistant entry of a transcript, with any tool
// calls the assistant made.
type Turn struct {
	UUID      string     `json:"uuid"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp string     `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// SessionDetail is a parsed transcript. TotalCount is the number of
// records on disk, which can exceed len(Turns) when the cap applies.
type SessionDetail struct {
	Turns      []Turn `json:"turns"`
	TotalCount int    `json:"total_count"`
}

// Sessions lists every transcript under projects/, most recently
// modified first. The working directory comes from the first record of
// each file. A missing projects directory yields an empty result.
func (r *Reader) Sessions() ([]Session, error) {
	projectsDir := filepath.Join(r.root, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Session{}, nil
		}
		return nil, err
	}

	sessions := []Session{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projectKey := entry.Name()
		projectDir := filepath.Join(projectsDir, projectKey)
		sessionEntries, err := os.ReadDir(projectDir)
		if err != nil {
			continue
		}

		for _, sessionEntry := range sessionEntries {
			name := sessionEntry.Name()
			if sessionEntry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
				continue
			}
			path := filepath.Join(projectDir, name)
			session := Session{
				ID:           strings.TrimSuffix(name, ".jsonl"),
				ProjectKey:   projectKey,
				Cwd:          firstLineCwd(path),
				MessageCount: countLines(path),
			}
			if info, err := sessionEntry.Info(); err == nil {
				session.LastMessageAt = info.ModTime().UTC().Format(time.RFC3339)
			}
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageAt > sessions[j].LastMessageAt
	})
	return sessions, nil
}

// SessionMessages extracts the plain-text messages of one transcript.
// User records carry their content as a string; assistant records carry
// content blocks, of which only text blocks contribute. Records with no
// extractable text are dropped.
func (r *Reader) SessionMessages(projectKey, sessionID string) ([]Message, error) {
	lines, _, err := r.sessionLines(projectKey, sessionID, 0)
	if err != nil {
		return nil, err
	}

	messages := []Message{}
	for _, line := range lines {
		record, ok := decodeRecord(line)
		if !ok {
			continue
		}
		var content string
		switch record.role {
		case "user":
			content, ok = record.message["content"].(string)
			if !ok {
				continue
			}
		case "assistant":
			blocks, ok := record.message["content"].([]any)
			if !ok {
				continue
			}
			content = joinTextBlocks(blocks)
		default:
			continue
		}
		if content == "" {
			continue
		}
		messages = append(messages, Message{
			UUID:      record.uuid,
			Role:      record.role,
			Content:   content,
			Timestamp: record.timestamp,
		})
	}
	return messages, nil
}

// SessionDetail parses one transcript into typed turns, capped at
// maxSessionTurns. Unlike SessionMessages it keeps tool calls and
// accepts user content given as blocks.
func (r *Reader) SessionDetail(projectKey, sessionID string) (*SessionDetail, error) {
	lines, total, err := r.sessionLines(projectKey, sessionID, maxSessionTurns)
	if err != nil {
		return nil, err
	}

	turns := []Turn{}
	for _, line := range lines {
		if turn, ok := parseTurn(line); ok {
			turns = append(turns, turn)
		}
	}
	return &SessionDetail{Turns: turns, TotalCount: total}, nil
}

// sessionLines reads the non-empty records of a transcript. When limit is
// positive at most limit lines are returned; total always counts every
// non-empty line.
func (r *Reader) sessionLines(projectKey, sessionID string, limit int) ([]string, int, error) {
	if err := checkName(projectKey); err != nil {
		return nil, 0, err
	}
	if err := checkName(sessionID); err != nil {
		return nil, 0, err
	}
	path := filepath.Join(r.root, "projects", projectKey, sessionID+".jsonl")
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	lines := []string{}
	total := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxSessionLine)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if limit <= 0 || len(lines) < limit {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

type sessionRecord struct {
	role      string
	uuid      string
	timestamp string
	message   map[string]any
}

func decodeRecord(line string) (sessionRecord, bool) {
	var body map[string]any
	if err := json.Unmarshal([]byte(line), &body); err != nil {
		return sessionRecord{}, false
	}
	role, ok := stringField(body, "type")
	if !ok {
		return sessionRecord{}, false
	}
	record := sessionRecord{role: role}
	record.uuid, _ = stringField(body, "uuid")
	record.timestamp, _ = stringField(body, "timestamp")
	record.message, _ = body["message"].(map[string]any)
	return record, true
}

func parseTurn(line string) (Turn, bool) {
	record, ok := decodeRecord(line)
	if !ok || (record.role != "user" && record.role != "assistant") {
		return Turn{}, false
	}

	turn := Turn{
		UUID:      record.uuid,
		Role:      record.role,
		Timestamp: record.timestamp,
		ToolCalls: []ToolCall{},
	}

	switch record.role {
	case "user":
		switch content := record.message["content"].(type) {
		case string:
			turn.Content = content
		case []any:
			turn.Content = joinTextBlocks(content)
		default:
			return Turn{}, false
		}
		// Tool-result-only records carry no text at all.
		if turn.Content == "" {
			return Turn{}, false
		}
	case "assistant":
		blocks, ok := record.message["content"].([]any)
		if !ok {
			return Turn{}, false
		}
		turn.Content = joinTextBlocks(blocks)
		turn.ToolCalls = collectToolCalls(blocks)
		if turn.Content == "" && len(turn.ToolCalls) == 0 {
			return Turn{}, false
		}
	}
	return turn, true
}

func joinTextBlocks(blocks []any) string {
	var sb strings.Builder
	for _, block := range blocks {
		body, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if kind, _ := stringField(body, "type"); kind != "text" {
			continue
		}
		if text, ok := stringField(body, "text"); ok {
			sb.WriteString(text)
		}
	}
	return sb.String()
}

func collectToolCalls(blocks []any) []ToolCall {
	calls := []ToolCall{}
	for _, block := range blocks {
		body, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if kind, _ := stringField(body, "type"); kind != "tool_use" {
			continue
		}
		call := ToolCall{Name: "unknown", Input: "{}"}
		call.ID, _ = stringField(body, "id")
		if name, ok := stringField(body, "name"); ok {
			call.Name = name
		}
		if input, err := json.Marshal(body["input"]); err == nil {
			call.Input = string(input)
		}
		calls = append(calls, call)
	}
	return calls
}

func firstLineCwd(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxSessionLine)
	if !scanner.Scan() {
		return ""
	}
	var body map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &body); err != nil {
		return ""
	}
	cwd, _ := stringField(body, "cwd")
	return cwd
}

func countLines(path string) int {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxSessionLine)
	for scanner.Scan() {
		count++
	}
	return count
}
