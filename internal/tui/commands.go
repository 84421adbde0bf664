package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/WillyV3/moodbi/internal/editor"
	"github.com/WillyV3/moodbi/internal/moodboard"
)

// Service is the backend surface the TUI drives.
type Service interface {
	ListBoards(ctx context.Context) ([]moodboard.Board, error)
	GetBoard(ctx context.Context, id string) (moodboard.Board, error)
	CreateBoard(ctx context.Context, p moodboard.BoardPayload) (moodboard.Board, error)
	ReplaceBoard(ctx context.Context, id string, p moodboard.BoardPayload) (moodboard.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	ListComments(ctx context.Context, boardID string) ([]moodboard.Comment, error)
	AddComment(ctx context.Context, boardID string, in moodboard.CommentInput) (moodboard.Comment, error)
	DeleteComment(ctx context.Context, boardID, commentID string) error

	ListAttachments(ctx context.Context, boardID string) ([]moodboard.Attachment, error)
	UploadFile(ctx context.Context, boardID, path string) (moodboard.Attachment, error)
	DeleteAttachment(ctx context.Context, boardID, attachmentID string) error

	ResolveURL(ref string) string
}

type boardsLoadedMsg struct {
	boards []moodboard.Board
}

type detailLoadedMsg struct {
	board       moodboard.Board
	comments    []moodboard.Comment
	attachments []moodboard.Attachment
}

// boardSavedMsg carries the canonical board after a replace.
type boardSavedMsg struct {
	board  moodboard.Board
	status string
}

type boardCreatedMsg struct {
	board moodboard.Board
}

type boardDeletedMsg struct {
	id string
}

// commentsLoadedMsg and attachmentsLoadedMsg follow a mutation on boardID.
type commentsLoadedMsg struct {
	boardID  string
	comments []moodboard.Comment
	status   string
}

type attachmentsLoadedMsg struct {
	boardID     string
	attachments []moodboard.Attachment
	status      string
}

// opErrMsg reports a failed action. mutation clears the busy flag.
type opErrMsg struct {
	op       string
	err      error
	mutation bool
}

type clearStatusMsg struct {
	id int
}

type openedMsg struct {
	status string
}

func loadBoardsCmd(svc Service) tea.Cmd {
	return func() tea.Msg {
		boards, err := svc.ListBoards(context.Background())
		if err != nil {
			return opErrMsg{op: "Load boards", err: err}
		}
		return boardsLoadedMsg{boards: boards}
	}
}

// loadDetailCmd fetches the board, its comments and its attachments
// concurrently. Only the board itself is required.
func loadDetailCmd(svc Service, log *zap.Logger, id string) tea.Cmd {
	return func() tea.Msg {
		var (
			board       moodboard.Board
			comments    []moodboard.Comment
			attachments []moodboard.Attachment
		)

		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			b, err := svc.GetBoard(ctx, id)
			board = b
			return err
		})
		g.Go(func() error {
			c, err := svc.ListComments(ctx, id)
			if err != nil {
				log.Warn("load comments", zap.String("board", id), zap.Error(err))
				return nil
			}
			comments = c
			return nil
		})
		g.Go(func() error {
			a, err := svc.ListAttachments(ctx, id)
			if err != nil {
				log.Warn("load attachments", zap.String("board", id), zap.Error(err))
				return nil
			}
			attachments = a
			return nil
		})
		if err := g.Wait(); err != nil {
			return opErrMsg{op: "Load board", err: err}
		}
		return detailLoadedMsg{board: board, comments: comments, attachments: attachments}
	}
}

// submitCmd sends a prepared replace. The draft itself is only touched back
// in Update, never from the command goroutine.
func submitCmd(svc Service, id string, p moodboard.BoardPayload, op, status string) tea.Cmd {
	return func() tea.Msg {
		fresh, err := editor.Submit(context.Background(), svc, id, p)
		if err != nil {
			return opErrMsg{op: op, err: err, mutation: true}
		}
		return boardSavedMsg{board: fresh, status: status}
	}
}

func createBoardCmd(svc Service, p moodboard.BoardPayload) tea.Cmd {
	return func() tea.Msg {
		b, err := svc.CreateBoard(context.Background(), p)
		if err != nil {
			return opErrMsg{op: "Create board", err: err, mutation: true}
		}
		return boardCreatedMsg{board: b}
	}
}

func deleteBoardCmd(svc Service, id string) tea.Cmd {
	return func() tea.Msg {
		if err := svc.DeleteBoard(context.Background(), id); err != nil {
			return opErrMsg{op: "Delete board", err: err, mutation: true}
		}
		return boardDeletedMsg{id: id}
	}
}

func addCommentCmd(svc Service, boardID string, in moodboard.CommentInput) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := svc.AddComment(ctx, boardID, in); err != nil {
			return opErrMsg{op: "Add comment", err: err, mutation: true}
		}
		return reloadComments(ctx, svc, boardID, "Comment added")
	}
}

func deleteCommentCmd(svc Service, boardID, commentID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := svc.DeleteComment(ctx, boardID, commentID); err != nil {
			return opErrMsg{op: "Delete comment", err: err, mutation: true}
		}
		return reloadComments(ctx, svc, boardID, "Comment deleted")
	}
}

func reloadComments(ctx context.Context, svc Service, boardID, status string) tea.Msg {
	comments, err := svc.ListComments(ctx, boardID)
	if err != nil {
		return opErrMsg{op: "Reload comments", err: err, mutation: true}
	}
	return commentsLoadedMsg{boardID: boardID, comments: comments, status: status}
}

func uploadCmd(svc Service, boardID, path string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := svc.UploadFile(ctx, boardID, path); err != nil {
			return opErrMsg{op: "Upload file", err: err, mutation: true}
		}
		return reloadAttachments(ctx, svc, boardID, "File uploaded")
	}
}

func deleteAttachmentCmd(svc Service, boardID, attachmentID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := svc.DeleteAttachment(ctx, boardID, attachmentID); err != nil {
			return opErrMsg{op: "Delete attachment", err: err, mutation: true}
		}
		return reloadAttachments(ctx, svc, boardID, "Attachment deleted")
	}
}

func reloadAttachments(ctx context.Context, svc Service, boardID, status string) tea.Msg {
	attachments, err := svc.ListAttachments(ctx, boardID)
	if err != nil {
		return opErrMsg{op: "Reload attachments", err: err, mutation: true}
	}
	return attachmentsLoadedMsg{boardID: boardID, attachments: attachments, status: status}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func openURLCmd(target string, openFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if err := openFn(target); err != nil {
			return opErrMsg{op: "Open link", err: err}
		}
		return openedMsg{status: "Opened " + target}
	}
}

func copyURLCmd(target string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if err := copyFn(target); err != nil {
			return opErrMsg{op: "Copy link", err: err}
		}
		return openedMsg{status: "Copied " + target}
	}
}

// isStale reports a save that went through but whose reload failed.
func isStale(err error) bool {
	return errors.Is(err, editor.ErrStale)
}
