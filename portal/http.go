package portal

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hope-iot/circuit5/wifi"
)

const formPage = `<!DOCTYPE html><html><head>
<meta charset='utf-8'>
<meta name='viewport' content='width=device-width, initial-scale=1'>
<title>UNO R4 WiFi Setup</title>
</head><body>
<h2>UNO R4 WiFi Provisioning</h2>
<p>Enter the Wi-Fi network this device should use.</p>
<form method='POST' action='/save'>
SSID:<br><input type='text' name='ssid' required><br><br>
Password:<br><input type='password' name='password'><br><br>
<button type='submit'>Save</button>
</form>
<p style='font-size:0.9em;color:#666;'>Credentials are stored in on-board non-volatile memory.</p>
</body></html>
`

const savedPageFmt = `<!DOCTYPE html><html><head><meta charset='utf-8'><title>Wi-Fi Saved</title></head><body>
<h2>Wi-Fi settings saved</h2>
<p>SSID: %s</p>
<p>Now reset or power-cycle the board.<br>On next boot it will connect to this network.</p>
</body></html>
`

// maxBody bounds the opportunistic body read; a credential form is far
// below this.
const maxBody = 4 << 10

func (self *Portal) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(self.readTimeout))

	br := bufio.NewReader(conn)
	requestLine, err := br.ReadString('\n')
	if err != nil {
		// idle or broken client, drop silently
		return
	}
	requestLine = strings.TrimRight(requestLine, "\r\n")
	self.log.Debugf("portal request: %s", requestLine)

	var method, path string
	if parts := strings.Fields(requestLine); len(parts) >= 2 {
		method, path = parts[0], parts[1]
	}

	contentLength := -1
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // headers finished
		}
		if k, v, ok := splitHeader(line); ok && strings.EqualFold(k, "Content-Length") {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				contentLength = n
			}
		}
	}

	if method == "POST" && path == "/save" {
		body := self.readBody(br, contentLength)
		self.saveSubmission(conn, body)
		return
	}

	// any other request gets the form
	self.respond(conn, formPage)
}

// readBody collects the form body opportunistically: Content-Length,
// when present and sane, stops the read early; otherwise the read runs
// until the connection deadline or EOF.
func (self *Portal) readBody(br *bufio.Reader, contentLength int) string {
	limit := maxBody
	if contentLength >= 0 && contentLength < limit {
		limit = contentLength
	}
	buf := make([]byte, limit)
	n, err := io.ReadFull(br, buf)
	if err != nil && err != io.ErrUnexpectedEOF && n == 0 {
		return ""
	}
	return strings.TrimSpace(string(buf[:n]))
}

func (self *Portal) saveSubmission(conn net.Conn, body string) {
	ssid := strings.TrimSpace(urlDecode(formField(body, "ssid")))
	pass := strings.TrimSpace(urlDecode(formField(body, "password")))
	self.log.Infof("received ssid=%s passphrase_len=%d", ssid, len(pass))

	rec := wifi.NewRecord(ssid, pass)
	if err := self.store.Save(rec); err != nil {
		self.log.Errorf("portal save err=%v", err)
		self.respond(conn, formPage)
		return
	}

	self.log.Infof("credentials saved, please reset the board")
	self.respond(conn, fmt.Sprintf(savedPageFmt, html.EscapeString(rec.SSIDString())))
}

func (self *Portal) respond(conn net.Conn, page string) {
	// the body read may have consumed the whole connection deadline
	_ = conn.SetWriteDeadline(time.Now().Add(self.readTimeout))
	var b strings.Builder
	b.WriteString("HTTP/1.1 200 OK\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("Connection: close\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(page))
	b.WriteString("\r\n")
	b.WriteString(page)
	if _, err := io.WriteString(conn, b.String()); err != nil {
		self.log.Debugf("portal write err=%v", err)
	}
}

func splitHeader(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
