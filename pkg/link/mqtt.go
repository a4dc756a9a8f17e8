package link

import (
	"io"
	"net/url"

	"github.com/golang/glog"

	"github.com/risky-soc/riskymon/pkg/link/mqtt"
)

func openMQTT(u *url.URL, role mqtt.Role) (*mqtt.Stream, error) {
	device := u.Query().Get("device")
	if device == "" {
		return nil, ErrNoDevice
	}
	q, err := mqtt.NewQueueFromURL(u.String())
	if err != nil {
		return nil, err
	}
	if err := q.ConnectWait(0); err != nil {
		return nil, err
	}
	s := mqtt.NewStream(q, device, role)
	if err := s.Open(); err != nil {
		q.Close()
		return nil, err
	}
	glog.Infof("mqtt stream %s/%s", q.TopicPrefix, device)
	return s, nil
}

func dialMQTT(u *url.URL) (io.ReadWriteCloser, error) {
	return openMQTT(u, mqtt.RoleClient)
}

func listenMQTT(u *url.URL) (Listener, error) {
	if u.Query().Get("device") == "" {
		return nil, ErrNoDevice
	}
	return newSingle(u.String(), func() (io.ReadWriteCloser, error) {
		return openMQTT(u, mqtt.RoleDevice)
	}), nil
}
