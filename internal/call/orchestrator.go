package call

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sahelilabs/saheli/internal/audio"
	"github.com/sahelilabs/saheli/internal/convo"
	"github.com/sahelilabs/saheli/internal/gateway"
	"github.com/sahelilabs/saheli/internal/observability"
	"github.com/sahelilabs/saheli/internal/persona"
	"github.com/sahelilabs/saheli/internal/prompt"
	"github.com/sahelilabs/saheli/internal/protocol"
)

const (
	historyFetchLimit  = 10
	historySaveTimeout = 2 * time.Second
)

// Orchestrator drives the listen-transcribe-generate-speak loop for one
// websocket connection at a time.
type Orchestrator struct {
	personas    persona.Store
	history     convo.Store
	prompts     *prompt.Builder
	transcriber gateway.Transcriber
	generator   gateway.Generator
	synthesizer gateway.Synthesizer
	latency     *observability.LatencyWindow
}

func NewOrchestrator(
	personas persona.Store,
	history convo.Store,
	prompts *prompt.Builder,
	transcriber gateway.Transcriber,
	generator gateway.Generator,
	synthesizer gateway.Synthesizer,
	latency *observability.LatencyWindow,
) *Orchestrator {
	if prompts == nil {
		prompts = prompt.NewBuilder(nil)
	}
	return &Orchestrator{
		personas:    personas,
		history:     history,
		prompts:     prompts,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		latency:     latency,
	}
}

// RunConnection consumes inbound client messages and emits server events
// until the call ends. The first message must be start-call.
func (o *Orchestrator) RunConnection(ctx context.Context, s *Session, inbound <-chan any, outbound chan<- any) error {
	p, err := o.awaitStartCall(ctx, s, inbound, outbound)
	if err != nil {
		return err
	}

	s.bindPersona(p)
	s.setState(StateReady)
	o.send(ctx, outbound, protocol.Ready{Type: protocol.TypeReady, Name: p.Name, Avatar: p.Avatar})

	var (
		turnMu     sync.Mutex
		turnCancel context.CancelFunc
		turnToken  int64
		nextToken  int64
	)

	beginTurn := func() (context.Context, int64) {
		turnMu.Lock()
		defer turnMu.Unlock()
		if turnCancel != nil {
			turnCancel()
		}
		tctx, cancel := context.WithCancel(ctx)
		turnCancel = cancel
		nextToken++
		turnToken = nextToken
		return tctx, nextToken
	}

	cancelTurn := func() {
		turnMu.Lock()
		cancel := turnCancel
		turnCancel = nil
		turnToken = 0
		turnMu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	finishTurn := func(token int64, next State) {
		turnMu.Lock()
		defer turnMu.Unlock()
		if turnToken != token {
			return
		}
		turnCancel = nil
		turnToken = 0
		s.setState(next)
	}
	defer cancelTurn()

	// Greeting turn: the persona speaks first.
	if greeting := strings.TrimSpace(p.Greeting); greeting != "" {
		tctx, token := beginTurn()
		go func() {
			o.speak(tctx, s, outbound, greeting)
			finishTurn(token, StateListening)
		}()
	} else {
		s.setState(StateListening)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			s.Touch()

			switch m := msg.(type) {
			case protocol.AudioChunk:
				observability.WSMessages.WithLabelValues("in", string(protocol.TypeAudioChunk)).Inc()
				pcm, err := base64.StdEncoding.DecodeString(m.Audio)
				if err != nil {
					o.sendError(ctx, outbound, "audio chunk is not valid base64")
					continue
				}
				s.Buffer.Append(pcm)
				if audio.EndpointUtterance(s.Buffer) {
					utterance := s.Buffer.Bytes()
					s.Buffer.Clear()
					tctx, token := beginTurn()
					go func() {
						o.runTurn(tctx, s, outbound, utterance)
						finishTurn(token, StateListening)
					}()
				}

			case protocol.Interrupt:
				observability.WSMessages.WithLabelValues("in", string(protocol.TypeInterrupt)).Inc()
				observability.CallEvents.WithLabelValues("interrupted").Inc()
				o.latency.ObserveIndicator("interrupted")
				cancelTurn()
				s.Buffer.Clear()
				s.setState(StateListening)

			case protocol.EndCall:
				observability.WSMessages.WithLabelValues("in", string(protocol.TypeEndCall)).Inc()
				cancelTurn()
				s.setState(StateEnded)
				return nil

			case protocol.StartCall:
				o.sendError(ctx, outbound, "call already started")

			default:
				o.sendError(ctx, outbound, "unsupported message")
			}
		}
	}
}

// awaitStartCall blocks until the client opens the call and resolves the
// requested persona.
func (o *Orchestrator) awaitStartCall(ctx context.Context, s *Session, inbound <-chan any, outbound chan<- any) (persona.Persona, error) {
	for {
		select {
		case <-ctx.Done():
			return persona.Persona{}, ctx.Err()
		case msg, ok := <-inbound:
			if !ok {
				return persona.Persona{}, errors.New("connection closed before start-call")
			}
			start, isStart := msg.(protocol.StartCall)
			if !isStart {
				o.sendError(ctx, outbound, "expected start-call first")
				continue
			}
			observability.WSMessages.WithLabelValues("in", string(protocol.TypeStartCall)).Inc()

			p, err := o.personas.Get(ctx, start.ProfileID)
			if err != nil {
				if errors.Is(err, persona.ErrNotFound) {
					o.sendError(ctx, outbound, fmt.Sprintf("unknown persona %q", start.ProfileID))
					return persona.Persona{}, fmt.Errorf("unknown persona %q", start.ProfileID)
				}
				observability.GatewayErrors.WithLabelValues("persona_store").Inc()
				o.sendError(ctx, outbound, "could not load persona")
				return persona.Persona{}, fmt.Errorf("load persona: %w", err)
			}
			if !p.Active {
				o.sendError(ctx, outbound, fmt.Sprintf("persona %q is not available", start.ProfileID))
				return persona.Persona{}, fmt.Errorf("persona %q is inactive", start.ProfileID)
			}
			return p, nil
		}
	}
}

// runTurn takes one endpointed utterance through the full pipeline. History
// is persisted only after every stage has succeeded.
func (o *Orchestrator) runTurn(ctx context.Context, s *Session, outbound chan<- any, utterance []byte) {
	turnStart := time.Now()
	p := s.Persona()

	s.setState(StateTranscribing)
	stageStart := time.Now()
	wav := audio.EncodeWAV(utterance, audio.SampleRate)
	text, err := o.transcriber.Transcribe(ctx, wav)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = gateway.ErrEmptyTranscript
		}
	}
	if err != nil {
		if canceled(ctx, err) {
			return
		}
		if errors.Is(err, gateway.ErrEmptyTranscript) {
			// Nothing was said; tell the caller and go back to listening.
			o.latency.ObserveIndicator("empty_transcript")
			o.sendError(ctx, outbound, "did not catch that, say it again")
			return
		}
		observability.GatewayErrors.WithLabelValues("transcription").Inc()
		log.Printf("call %s: transcription failed: %v", s.ID, err)
		o.sendError(ctx, outbound, "could not understand the audio, try again")
		return
	}
	o.observeStage(observability.StageTranscription, stageStart)

	s.setState(StateGenerating)
	stageStart = time.Now()
	recent, err := o.recentTurns(ctx, s.UserID, p.ProfileID)
	if err != nil {
		log.Printf("call %s: history fetch failed: %v", s.ID, err)
	}
	lines := make([]string, 0, len(recent))
	for _, turn := range recent {
		lines = append(lines, turn.Role+": "+turn.Content)
	}
	system := o.prompts.Build(p, text, lines)
	messages := make([]gateway.Message, 0, len(recent)+2)
	messages = append(messages, gateway.Message{Role: "system", Content: system})
	for _, turn := range recent {
		messages = append(messages, gateway.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, gateway.Message{Role: "user", Content: text})
	reply, err := o.generator.Generate(ctx, messages)
	if err != nil {
		if canceled(ctx, err) {
			return
		}
		observability.GatewayErrors.WithLabelValues("generation").Inc()
		log.Printf("call %s: generation failed: %v", s.ID, err)
		o.sendError(ctx, outbound, "could not think of a reply, try again")
		return
	}
	reply = speechText(reply)
	if reply == "" {
		o.latency.ObserveIndicator("empty_reply")
		return
	}
	o.observeStage(observability.StageGeneration, stageStart)

	s.setState(StateSpeaking)
	o.send(ctx, outbound, protocol.AISpeaking{Type: protocol.TypeAISpeaking})

	stageStart = time.Now()
	audioBytes, err := o.synthesizer.Synthesize(ctx, reply, persona.ResolveVoice(p))
	if err != nil {
		if canceled(ctx, err) {
			return
		}
		observability.GatewayErrors.WithLabelValues("synthesis").Inc()
		log.Printf("call %s: synthesis failed: %v", s.ID, err)
		o.sendError(ctx, outbound, "could not speak the reply, try again")
		return
	}
	o.observeStage(observability.StageSynthesis, stageStart)

	if ctx.Err() != nil {
		return
	}
	o.send(ctx, outbound, protocol.AIAudio{
		Type:   protocol.TypeAIAudio,
		Base64: base64.StdEncoding.EncodeToString(audioBytes),
	})

	firstAudio := time.Since(turnStart)
	observability.FirstAudioSeconds.Observe(firstAudio.Seconds())
	o.latency.Observe(observability.StageFirstAudio, float64(firstAudio.Milliseconds()))
	o.latency.Observe(observability.StageTurnTotal, float64(time.Since(turnStart).Milliseconds()))

	if ctx.Err() != nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
	defer cancel()
	if err := o.history.AppendExchange(saveCtx, s.UserID, p.ProfileID, text, reply); err != nil {
		log.Printf("call %s: history save failed: %v", s.ID, err)
	}
}

// speak synthesizes standalone text, used for the greeting turn.
func (o *Orchestrator) speak(ctx context.Context, s *Session, outbound chan<- any, text string) {
	text = speechText(text)
	if text == "" {
		return
	}
	s.setState(StateSpeaking)
	o.send(ctx, outbound, protocol.AISpeaking{Type: protocol.TypeAISpeaking})

	audioBytes, err := o.synthesizer.Synthesize(ctx, text, persona.ResolveVoice(s.Persona()))
	if err != nil {
		if canceled(ctx, err) {
			return
		}
		observability.GatewayErrors.WithLabelValues("synthesis").Inc()
		log.Printf("call %s: greeting synthesis failed: %v", s.ID, err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	o.send(ctx, outbound, protocol.AIAudio{
		Type:   protocol.TypeAIAudio,
		Base64: base64.StdEncoding.EncodeToString(audioBytes),
	})
}

func (o *Orchestrator) recentTurns(ctx context.Context, userID, profileID string) ([]convo.Turn, error) {
	if o.history == nil {
		return nil, nil
	}
	return o.history.Recent(ctx, userID, profileID, historyFetchLimit)
}

func (o *Orchestrator) observeStage(stage string, start time.Time) {
	elapsed := time.Since(start)
	observability.TurnStageSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
	o.latency.Observe(stage, float64(elapsed.Milliseconds()))
}

func (o *Orchestrator) send(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case outbound <- msg:
		if t, ok := protocol.MessageTypeOf(msg); ok {
			observability.WSMessages.WithLabelValues("out", string(t)).Inc()
		}
	case <-ctx.Done():
	}
}

func (o *Orchestrator) sendError(ctx context.Context, outbound chan<- any, message string) {
	o.send(ctx, outbound, protocol.ErrorEvent{Type: protocol.TypeError, Message: message})
}

// canceled reports whether the turn was cut short by its own context
// rather than failing upstream.
func canceled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}
