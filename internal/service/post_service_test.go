package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rollcall-api/internal/auth"
	"github.com/noah-isme/rollcall-api/internal/dto"
)

type storageStub struct {
	uploaded bytes.Buffer
	name     string
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.uploaded.Reset()
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	s.name = name
	return "https://cdn.example.com/" + name, nil
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func stringPtr(v string) *string {
	return &v
}

func TestPostServiceCreateKeepsOwnedClassesOnly(t *testing.T) {
	env := setupServiceEnv(t)
	svc := NewPostService(env.posts, env.classes, nil, env.activity, env.validate, 1, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")
	other := env.seedFaculty(t, "other@adithyatech.com")
	student := env.seedStudent(t, "21CS001", false)
	mine := env.seedClass(t, owner, student)
	theirs := env.seedClass(t, other)

	created, err := svc.Create(ctx, owner, dto.PostCreateRequest{
		Title:       "<b>Unit 1</b> notes",
		Description: stringPtr("Read <script>alert(1)</script>chapter 2"),
		AuthorID:    owner.ID,
		ClassIDs:    []uint{mine.ID, theirs.ID, mine.ID},
	})
	require.NoError(t, err)
	require.Equal(t, []uint{mine.ID}, created.Access)
	require.Equal(t, "Unit 1 notes", created.Post.Title)
	require.NotNil(t, created.Post.Description)
	require.NotContains(t, *created.Post.Description, "script")

	_, err = svc.Create(ctx, owner, dto.PostCreateRequest{Title: "Spoof", AuthorID: other.ID})
	require.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.Create(ctx, auth.Principal{ID: student.ID, Role: auth.RoleStudent}, dto.PostCreateRequest{Title: "Nope", AuthorID: student.ID})
	require.ErrorIs(t, err, auth.ErrForbidden)

	visible, err := svc.ListForStudent(ctx, studentPrincipal(student), dto.PostListRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), visible.Total)
	require.Equal(t, created.Post.ID, visible.Items[0].ID)

	authored, err := svc.List(ctx, other, dto.PostListRequest{})
	require.NoError(t, err)
	require.Zero(t, authored.Total)
}

func TestPostServiceUpdateAndDeleteAreAuthorOnly(t *testing.T) {
	env := setupServiceEnv(t)
	svc := NewPostService(env.posts, env.classes, nil, env.activity, env.validate, 1, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")
	other := env.seedFaculty(t, "other@adithyatech.com")
	first := env.seedClass(t, owner)
	second := env.seedClass(t, owner)

	created, err := svc.Create(ctx, owner, dto.PostCreateRequest{Title: "Lab", AuthorID: owner.ID, ClassIDs: []uint{first.ID}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other, dto.PostUpdateRequest{PostID: created.Post.ID, Title: stringPtr("Hijack")})
	require.ErrorIs(t, err, ErrPostNotFound)

	classIDs := []uint{second.ID}
	updated, err := svc.Update(ctx, owner, dto.PostUpdateRequest{PostID: created.Post.ID, Title: stringPtr(" Lab 2 "), ClassIDs: &classIDs})
	require.NoError(t, err)
	require.Equal(t, "Lab 2", updated.Post.Title)
	require.Equal(t, []uint{second.ID}, updated.Access)

	require.ErrorIs(t, svc.Delete(ctx, other, created.Post.ID), ErrPostNotFound)
	require.NoError(t, svc.Delete(ctx, owner, created.Post.ID))
	require.ErrorIs(t, svc.Delete(ctx, owner, created.Post.ID), ErrPostNotFound)
}

func TestPostServiceKeepsPlainTextIntact(t *testing.T) {
	env := setupServiceEnv(t)
	svc := NewPostService(env.posts, env.classes, nil, env.activity, env.validate, 1, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")

	title := "Q&A: marks > 50"
	description := `Tom's "notes"`
	created, err := svc.Create(ctx, owner, dto.PostCreateRequest{Title: title, Description: stringPtr(description), AuthorID: owner.ID})
	require.NoError(t, err)
	require.Equal(t, title, created.Post.Title)
	require.Equal(t, description, *created.Post.Description)

	listed, err := svc.List(ctx, owner, dto.PostListRequest{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, title, listed.Items[0].Title)
	require.Equal(t, description, *listed.Items[0].Description)

	updated, err := svc.Update(ctx, owner, dto.PostUpdateRequest{PostID: created.Post.ID, Title: stringPtr("<i>Q&A</i>: marks > 60")})
	require.NoError(t, err)
	require.Equal(t, "Q&A: marks > 60", updated.Post.Title)
	require.Equal(t, description, *updated.Post.Description)
}

func TestPostServiceAttachDocument(t *testing.T) {
	env := setupServiceEnv(t)
	storage := &storageStub{}
	svc := NewPostService(env.posts, env.classes, storage, env.activity, env.validate, 1, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")

	created, err := svc.Create(ctx, owner, dto.PostCreateRequest{Title: "Syllabus", AuthorID: owner.ID})
	require.NoError(t, err)

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	post, err := svc.AttachDocument(ctx, owner, created.Post.ID, buildFileHeader(t, "Unit 1 Syllabus.PDF", pdf))
	require.NoError(t, err)
	require.NotNil(t, post.DocumentSource)
	require.Equal(t, "https://cdn.example.com/unit-1-syllabus.pdf", *post.DocumentSource)
	require.Equal(t, pdf, storage.uploaded.Bytes())
	require.Equal(t, []string{ActionPostDocument}, env.activity.actions())
}

func TestPostServiceAttachDocumentRejections(t *testing.T) {
	env := setupServiceEnv(t)
	storage := &storageStub{}
	svc := NewPostService(env.posts, env.classes, storage, env.activity, env.validate, 1, testLogger())
	ctx := context.Background()
	owner := env.seedFaculty(t, "owner@adithyatech.com")
	other := env.seedFaculty(t, "other@adithyatech.com")

	created, err := svc.Create(ctx, owner, dto.PostCreateRequest{Title: "Syllabus", AuthorID: owner.ID})
	require.NoError(t, err)

	_, err = svc.AttachDocument(ctx, owner, created.Post.ID, buildFileHeader(t, "big.pdf", bytes.Repeat([]byte("a"), 2*1024*1024)))
	require.ErrorIs(t, err, ErrDocumentTooLarge)

	elf := []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, err = svc.AttachDocument(ctx, owner, created.Post.ID, buildFileHeader(t, "tool.pdf", elf))
	require.ErrorIs(t, err, ErrDocumentTypeNotAllowed)

	_, err = svc.AttachDocument(ctx, other, created.Post.ID, buildFileHeader(t, "notes.txt", []byte("plain notes")))
	require.ErrorIs(t, err, ErrPostNotFound)

	unconfigured := NewPostService(env.posts, env.classes, nil, env.activity, env.validate, 1, testLogger())
	_, err = unconfigured.AttachDocument(ctx, owner, created.Post.ID, buildFileHeader(t, "notes.txt", []byte("plain notes")))
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.Zero(t, storage.uploaded.Len())
}
