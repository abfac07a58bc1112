package http

import (
	"encoding/json"

	"github.com/vovakirdan/parley-server/internal/core"
	"github.com/vovakirdan/parley-server/internal/proto"
)

func destinationFromRef(ref proto.DestinationRef) (core.Destination, *proto.Error) {
	if ref.Name == "" {
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "destination name is required"}
	}
	switch core.DestinationKind(ref.Kind) {
	case core.KindSession:
		return core.SessionDestination{ID: ref.Name}, nil
	case core.KindParticipant:
		return core.ParticipantName{Participant: ref.Name}, nil
	case core.KindChannel:
		return core.ChannelName{Channel: ref.Name}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown destination kind"}
	}
}

func refFromDestination(dest core.Destination) proto.DestinationRef {
	if dest == nil {
		return proto.DestinationRef{}
	}
	return proto.DestinationRef{Kind: string(dest.Kind()), Name: dest.Name()}
}

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Channel == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "channel is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandJoinChannel,
			Channel: join.Channel,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.JoinData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.Channel == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "channel is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandLeaveChannel,
			Channel: leave.Channel,
		}, nil, nil
	case proto.InboundTypeLeaveSession:
		var leave proto.LeaveSessionData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.Session == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "session is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandLeaveSession,
			Session: leave.Session,
		}, nil, nil
	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, nil, err
		}
		dest, protoErr := destinationFromRef(send.To)
		if protoErr != nil {
			return nil, protoErr, nil
		}
		return &core.Command{
			Kind: core.CommandSend,
			Message: &core.Message{
				// ID and timestamp are set by the hub at dispatch time.
				Destination: dest,
				Session:     send.Session,
				Body:        []byte(send.Body),
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		if event.Message == nil {
			return proto.Outbound{Type: proto.OutboundTypeEvent, Event: "message"}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message",
			Data: proto.EventMessage{
				ID:      event.Message.ID,
				From:    event.Message.Sender,
				To:      refFromDestination(event.Message.Destination),
				Session: event.Message.Session,
				Body:    string(event.Message.Body),
				TS:      event.Message.SentAt.Unix(),
			},
		}
	case core.EventReport:
		data := proto.EventReport{Outcomes: make(map[string]proto.OutcomeData, len(event.Report))}
		if event.Message != nil {
			data.MessageID = event.Message.ID
		}
		for participant, out := range event.Report {
			data.Outcomes[participant] = proto.OutcomeData{
				Status: string(out.Status),
				Reason: out.Reason,
			}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "report",
			Data:  data,
		}
	case core.EventInvited:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "invited",
			Data: proto.EventInvited{
				Session:   event.Session,
				Moderator: event.Participant,
			},
		}
	case core.EventMemberJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "member_joined",
			Data: proto.EventMember{
				Channel:     event.Channel,
				Participant: event.Participant,
			},
		}
	case core.EventMemberLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "member_left",
			Data: proto.EventMember{
				Channel:     event.Channel,
				Participant: event.Participant,
			},
		}
	case core.EventSessionClosed:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "session_closed",
			Data: proto.EventSessionClosed{
				Session: event.Session,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
