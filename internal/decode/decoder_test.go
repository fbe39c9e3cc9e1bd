package decode

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/serena/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDecoders_NoOpOnMissingOrEmptySource(t *testing.T) {
	logger := common.DiscardLogger()

	for _, d := range All(logger) {
		t.Run(d.Name(), func(t *testing.T) {
			root := t.TempDir()
			dst := filepath.Join(root, "text")

			res, err := d.Decode(context.Background(), filepath.Join(root, "missing"), dst)
			require.NoError(t, err)
			assert.Empty(t, res.Units)
			assert.Zero(t, res.Stats.Processed)

			empty := filepath.Join(root, "empty")
			require.NoError(t, os.MkdirAll(empty, 0750))
			res, err = d.Decode(context.Background(), empty, dst)
			require.NoError(t, err)
			assert.Empty(t, res.Units)

			_, err = os.Stat(dst)
			assert.True(t, os.IsNotExist(err), "no-op must not create the output directory")
		})
	}
}

func TestMailDecoder(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "emls")
	dst := filepath.Join(root, "text")

	writeFile(t, filepath.Join(src, "a.eml"), strings.Join([]string{
		"From: Shop <orders@shop.example>",
		"To: me@example.com",
		"Subject: Your order",
		"Date: Mon, 4 Mar 2024 09:00:00 +0000",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain part",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>html part</p>",
		"--b1--",
		"",
	}, "\r\n"))
	writeFile(t, filepath.Join(src, "b.eml"), strings.Join([]string{
		"Content-Type: text/plain; charset=iso-8859-1",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"caf=E9 receipt",
		"",
	}, "\r\n"))
	writeFile(t, filepath.Join(src, "notes.txt"), "ignored")

	d := NewMailDecoder(common.DiscardLogger())
	res, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Processed)
	assert.Equal(t, 2, res.Stats.Succeeded)
	require.Len(t, res.Units, 2)
	assert.ElementsMatch(t, []string{"eml_1.txt", "eml_2.txt"}, listNames(t, dst))

	first := readFile(t, filepath.Join(dst, "eml_1.txt"))
	assert.True(t, strings.HasPrefix(first, "From: Shop <orders@shop.example>\nTo: me@example.com\nSubject: Your order\nDate: Mon, 4 Mar 2024 09:00:00 +0000\n\nBody:\n"), first)
	plain := strings.Index(first, "plain part")
	html := strings.Index(first, "<p>html part</p>")
	require.NotEqual(t, -1, plain)
	require.NotEqual(t, -1, html)
	assert.Less(t, plain, html, "parts keep tree order")

	second := readFile(t, filepath.Join(dst, "eml_2.txt"))
	assert.Contains(t, second, "From: Unknown\nTo: Unknown\nSubject: No Subject\nDate: Unknown\n")
	assert.Contains(t, second, "café receipt")

	assert.Equal(t, filepath.Join(src, "a.eml"), res.Units[0].Provenance.ArchivePath)
	assert.Equal(t, first, res.Units[0].Body)
}

func TestTabularDecoder_Workbook(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "textmessage")
	dst := filepath.Join(root, "text")
	require.NoError(t, os.MkdirAll(src, 0750))

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"sender", "message"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"12345", "Your code is 991"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Mom"}))
	require.NoError(t, f.SaveAs(filepath.Join(src, "sms.xlsx")))
	require.NoError(t, f.Close())

	writeFile(t, filepath.Join(src, "broken.xlsx"), "not a workbook")

	d := NewTabularDecoder(common.DiscardLogger())
	res, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, 2, res.Stats.Succeeded)
	assert.ElementsMatch(t, []string{"sms_msg_1.txt", "sms_msg_2.txt"}, listNames(t, dst))
	assert.Equal(t, "sender: 12345\nmessage: Your code is 991", readFile(t, filepath.Join(dst, "sms_msg_1.txt")))
	assert.Equal(t, "sender: Mom\nmessage: ", readFile(t, filepath.Join(dst, "sms_msg_2.txt")))
}

func TestTabularDecoder_CSV(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "textmessage")
	dst := filepath.Join(root, "text")

	writeFile(t, filepath.Join(src, "export.csv"), "\ufefffrom,body\n555,\"Paid $12.00, thanks\"\n,\n777,hi\n")

	d := NewTabularDecoder(common.DiscardLogger())
	res, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Succeeded)
	assert.ElementsMatch(t, []string{"export_msg_1.txt", "export_msg_3.txt"}, listNames(t, dst))
	assert.Equal(t, "from: 555\nbody: Paid $12.00, thanks", readFile(t, filepath.Join(dst, "export_msg_1.txt")))
}

func TestTranscriptDecoder(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "messagingapp")
	dst := filepath.Join(root, "text")

	original := "no banners here\r\n  keep spacing  \n"
	writeFile(t, filepath.Join(src, "plain.txt"), original)
	writeFile(t, filepath.Join(src, "chat.txt"), "\ufeff"+banner+"\n[09:00] Bank: OTP 1234\n"+banner+"\n[10:00] Me: ok\n")

	d := NewTranscriptDecoder(common.DiscardLogger())
	res, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.Succeeded)
	assert.ElementsMatch(t, []string{"plain_original.txt", "chat_part2.txt", "chat_part3.txt"}, listNames(t, dst))
	assert.Equal(t, original, readFile(t, filepath.Join(dst, "plain_original.txt")))
	assert.Equal(t, "[09:00] Bank: OTP 1234", readFile(t, filepath.Join(dst, "chat_part2.txt")))

	for _, u := range res.Units {
		if strings.HasSuffix(u.ID, "chat_part3.txt") {
			assert.Equal(t, 3, u.Provenance.Session)
		}
	}
}

func TestDecoders_RerunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "messagingapp")
	dst := filepath.Join(root, "text")
	writeFile(t, filepath.Join(src, "chat.txt"), "a\n"+banner+"\nb")

	d := NewTranscriptDecoder(common.DiscardLogger())
	_, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)
	_, err = d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"chat_part1.txt", "chat_part2.txt"}, listNames(t, dst))
}

func simpleMail(subject string) string {
	return "Subject: " + subject + "\r\n\r\n" + subject + " confirmed\r\n"
}

func TestMailDecoder_RerunAfterAddingMail(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "emls")
	dst := filepath.Join(root, "text")
	d := NewMailDecoder(common.DiscardLogger())

	writeFile(t, filepath.Join(src, "a.eml"), simpleMail("Order A"))
	writeFile(t, filepath.Join(src, "c.eml"), simpleMail("Order C"))
	_, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"eml_1.txt", "eml_2.txt"}, listNames(t, dst))

	writeFile(t, filepath.Join(src, "b.eml"), simpleMail("Order B"))
	res, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"eml_1.txt", "eml_2.txt", "eml_2-1.txt"}, listNames(t, dst))
	assert.Contains(t, readFile(t, filepath.Join(dst, "eml_2.txt")), "Order C")
	assert.Contains(t, readFile(t, filepath.Join(dst, "eml_2-1.txt")), "Order B")

	require.Len(t, res.Units, 3)
	ids := map[string]string{}
	for _, u := range res.Units {
		ids[filepath.Base(u.Provenance.ArchivePath)] = filepath.Base(u.ID)
	}
	assert.Equal(t, map[string]string{
		"a.eml": "eml_1.txt",
		"b.eml": "eml_2-1.txt",
		"c.eml": "eml_2.txt",
	}, ids)
}

func TestMailDecoder_IdenticalMailsStagedOnce(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "emls")
	dst := filepath.Join(root, "text")

	writeFile(t, filepath.Join(src, "a.eml"), simpleMail("Receipt"))
	writeFile(t, filepath.Join(src, "copy-of-a.eml"), simpleMail("Receipt"))

	res, err := NewMailDecoder(common.DiscardLogger()).Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.Processed)
	assert.Equal(t, 1, res.Stats.Succeeded)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Len(t, res.Units, 1)
	assert.Equal(t, []string{"eml_1.txt"}, listNames(t, dst))
}

func TestTabularDecoder_RerunAfterInsertingRow(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "textmessage")
	dst := filepath.Join(root, "text")
	d := NewTabularDecoder(common.DiscardLogger())

	writeFile(t, filepath.Join(src, "export.csv"), "from,body\n111,first\n333,third\n")
	_, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	writeFile(t, filepath.Join(src, "export.csv"), "from,body\n111,first\n222,second\n333,third\n")
	res, err := d.Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Len(t, res.Units, 3)
	assert.ElementsMatch(t, []string{"export_msg_1.txt", "export_msg_2.txt", "export_msg_2-1.txt"}, listNames(t, dst))
	assert.Equal(t, "from: 333\nbody: third", readFile(t, filepath.Join(dst, "export_msg_2.txt")))
	assert.Equal(t, "from: 222\nbody: second", readFile(t, filepath.Join(dst, "export_msg_2-1.txt")))
}

func TestTranscriptDecoder_OriginalKeepsByteOrderMark(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "messagingapp")
	dst := filepath.Join(root, "text")

	input := "\xef\xbb\xbfhey, are we still on for lunch?\n"
	writeFile(t, filepath.Join(src, "chat.txt"), input)

	res, err := NewTranscriptDecoder(common.DiscardLogger()).Decode(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, []string{"chat_original.txt"}, listNames(t, dst))
	assert.Equal(t, input, readFile(t, filepath.Join(dst, "chat_original.txt")))
	require.Len(t, res.Units, 1)
	assert.Equal(t, input, res.Units[0].Body)
}

func TestWriteUnit_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()

	p1, err := writeUnit(dir, "eml_1.txt", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eml_1.txt"), p1)

	same, err := writeUnit(dir, "eml_1.txt", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, p1, same)

	p2, err := writeUnit(dir, "eml_1.txt", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eml_1-1.txt"), p2)

	p3, err := writeUnit(dir, "eml_1.txt", []byte("third"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eml_1-2.txt"), p3)

	assert.Equal(t, "first", readFile(t, p1))
	assert.Equal(t, "second", readFile(t, p2))
}

func TestDecode_CanceledContext(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "messagingapp")
	writeFile(t, filepath.Join(src, "chat.txt"), "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTranscriptDecoder(common.DiscardLogger()).Decode(ctx, src, filepath.Join(root, "text"))
	assert.ErrorIs(t, err, context.Canceled)
}
