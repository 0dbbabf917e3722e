// Package server exposes HTTP handlers, including WebSocket upgrades, the
// health check, and the built-in viewer page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler handles WebSocket upgrade requests and hands accepted
// connections to the hub. It validates that the request uses the GET
// method, upgrades the HTTP connection, and registers a new session; the
// hub performs the join handshake and starts the session's pumps.
func WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	h := GetHub()
	if h == nil {
		http.Error(w, "Server is not accepting connections yet.", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, h, r.RemoteAddr)
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		// The hub stopped between the upgrade and the registration.
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Crux world server is running!")
}

// ViewerPageHandler serves an HTML page for poking at the world server.
// It connects to the WebSocket endpoint, reports snapshot frames as they
// arrive, and can send text echoes and 12-byte position updates.
func ViewerPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Crux World Viewer</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"], input[type="number"] { padding: 5px; margin-right: 5px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Crux World Viewer</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div style="margin-top:10px">
        <input type="text" id="messageInput" placeholder="Text to echo..." disabled>
        <button id="sendButton" onclick="sendText()" disabled>Send</button>
    </div>
    <div style="margin-top:10px">
        <input type="number" id="posX" value="0" step="0.5" style="width:70px">
        <input type="number" id="posY" value="0" step="0.5" style="width:70px">
        <input type="number" id="posZ" value="0" step="0.5" style="width:70px">
        <button id="moveButton" onclick="sendPosition()" disabled>Move</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const statusDiv = document.getElementById('status');
        const controls = ['messageInput', 'sendButton', 'moveButton'];

        function addMessage(message) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            el.textContent = message;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            controls.forEach(id => document.getElementById(id).disabled = !connected);
            document.getElementById('connectButton').textContent = connected ? 'Disconnect' : 'Connect';
        }

        function connect() {
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.binaryType = 'arraybuffer';

            ws.onopen = () => { addMessage('Connected to Crux server'); updateStatus(true); };
            ws.onmessage = (event) => {
                if (event.data instanceof ArrayBuffer) {
                    const view = new DataView(event.data);
                    const planets = view.getUint32(0, true);
                    addMessage('Snapshot frame: ' + event.data.byteLength + ' bytes, ' + planets + ' planets');
                } else {
                    addMessage('Server: ' + event.data);
                }
            };
            ws.onclose = () => { addMessage('Connection closed'); updateStatus(false); ws = null; };
            ws.onerror = () => { addMessage('Connection error'); updateStatus(false); };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) { ws.close(); } else { connect(); }
        }

        function sendText() {
            const input = document.getElementById('messageInput');
            const message = input.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(message);
                addMessage('You: ' + message);
                input.value = '';
            }
        }

        function sendPosition() {
            if (!ws || ws.readyState !== WebSocket.OPEN) return;
            const buf = new ArrayBuffer(12);
            const view = new DataView(buf);
            view.setFloat32(0, parseFloat(document.getElementById('posX').value) || 0, true);
            view.setFloat32(4, parseFloat(document.getElementById('posY').value) || 0, true);
            view.setFloat32(8, parseFloat(document.getElementById('posZ').value) || 0, true);
            ws.send(buf);
        }

        document.getElementById('messageInput').addEventListener('keypress', (e) => {
            if (e.key === 'Enter') sendText();
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
