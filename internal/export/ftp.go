package export

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPUploader ships ledger files to the market committee's FTP drop.
type FTPUploader struct {
	Addr     string // host or host:port; port defaults to 21
	User     string
	Password string
	Dir      string // optional remote directory
	Timeout  time.Duration
}

// NewFTPUploader creates an uploader with sane defaults. Anonymous login
// is used when no user is configured.
func NewFTPUploader(addr, user, password, dir string) *FTPUploader {
	if user == "" {
		user = "anonymous"
		password = "anonymous@"
	}
	return &FTPUploader{
		Addr:     addr,
		User:     user,
		Password: password,
		Dir:      dir,
		Timeout:  30 * time.Second,
	}
}

// Upload stores data under name on the remote server. One connection per
// upload; the connection is always torn down.
func (u *FTPUploader) Upload(ctx context.Context, name string, data []byte) error {
	if u.Addr == "" {
		return eris.New("ftp: no address configured")
	}

	host := u.Addr
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}

	timeout := u.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("file", name))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "ftp dial")
	}
	defer conn.Quit()

	if err := conn.Login(u.User, u.Password); err != nil {
		return eris.Wrap(err, "ftp login")
	}

	if u.Dir != "" {
		if err := conn.ChangeDir(u.Dir); err != nil {
			return eris.Wrapf(err, "ftp change dir %s", u.Dir)
		}
	}

	if err := conn.Stor(name, bytes.NewReader(data)); err != nil {
		return eris.Wrapf(err, "ftp store %s", name)
	}

	zap.L().Info("ledger uploaded",
		zap.String("host", host),
		zap.String("file", name),
		zap.Int("bytes", len(data)),
	)
	return nil
}
