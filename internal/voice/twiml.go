package voice

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// VerbKind names a call-control instruction.
type VerbKind string

const (
	KindDial   VerbKind = "dial"
	KindSay    VerbKind = "say"
	KindHangup VerbKind = "hangup"
)

// Verb is a single instruction inside a Document.
type Verb interface {
	Kind() VerbKind
}

// Document is the ordered set of instructions returned to the provider.
type Document struct {
	Verbs []Verb
}

// Bridged reports whether the document connects the call to a destination.
func (d Document) Bridged() bool {
	for _, v := range d.Verbs {
		if v.Kind() == KindDial {
			return true
		}
	}
	return false
}

// MarshalXML renders the document as a TwiML <Response>.
func (d Document) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "Response"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, v := range d.Verbs {
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	if err := e.EncodeToken(start.End()); err != nil {
		return err
	}
	return e.Flush()
}

// EncodeTwiML returns the XML document including the prolog.
func EncodeTwiML(d Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	if err := xml.NewEncoder(&buf).Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Say speaks a message to the caller.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

func (Say) Kind() VerbKind { return KindSay }

// Dial bridges the inbound leg to Number.
type Dial struct {
	XMLName        xml.Name `xml:"Dial"`
	CallerID       string   `xml:"callerId,attr,omitempty"`
	Timeout        int      `xml:"timeout,attr,omitempty"`
	Record         string   `xml:"record,attr,omitempty"`
	AnswerOnBridge bool     `xml:"answerOnBridge,attr,omitempty"`
	Number         Number   `xml:"Number"`
}

func (Dial) Kind() VerbKind { return KindDial }

// Number is the dial target together with its status-callback subscription.
type Number struct {
	XMLName              xml.Name    `xml:"Number"`
	StatusCallbackEvent  CallbackSet `xml:"statusCallbackEvent,attr,omitempty"`
	StatusCallback       string      `xml:"statusCallback,attr,omitempty"`
	StatusCallbackMethod string      `xml:"statusCallbackMethod,attr,omitempty"`
	Value                PhoneNumber `xml:",chardata"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func (Hangup) Kind() VerbKind { return KindHangup }

// CallbackSet is the list of call progress events a status callback subscribes to.
type CallbackSet []CallStatus

// MarshalXMLAttr joins the events with spaces, as the provider expects.
func (s CallbackSet) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	parts := make([]string, len(s))
	for i, ev := range s {
		parts[i] = string(ev)
	}
	return xml.Attr{Name: name, Value: strings.Join(parts, " ")}, nil
}

// Contains reports whether ev is part of the subscription.
func (s CallbackSet) Contains(ev CallStatus) bool {
	for _, v := range s {
		if v == ev {
			return true
		}
	}
	return false
}
